package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/newthinker/sentinel/internal/cache"
	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/confluence"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/indicator"
	"github.com/newthinker/sentinel/internal/logger"
	"github.com/newthinker/sentinel/internal/notifier/kafka"
	"github.com/newthinker/sentinel/internal/notifier/webhook"
	"github.com/newthinker/sentinel/internal/router"
	"github.com/newthinker/sentinel/internal/signal"
	"github.com/newthinker/sentinel/internal/storage/archive"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Collector collector.Config `mapstructure:"collector"`
	Watchlist []WatchlistItem  `mapstructure:"watchlist" validate:"dive"`
	Trading   TradingConfig    `mapstructure:"trading"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Cache     cache.Config     `mapstructure:"cache"`
	Events    EventsConfig     `mapstructure:"events"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Logging   logger.Options   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" default:"0.0.0.0"`
	Port            int           `mapstructure:"port" default:"8080" validate:"gte=1,lte=65535"`
	APIKey          string        `mapstructure:"api_key"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"10s" validate:"gt=0"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type WatchlistItem struct {
	Symbol  string `mapstructure:"symbol" validate:"required"`
	Profile string `mapstructure:"profile" validate:"omitempty,oneof=scalp day swing"`
}

// IndicatorConfig holds indicator periods plus the RSI trigger levels.
type IndicatorConfig struct {
	indicator.Params `mapstructure:",squash"`
	RSIOverbought    float64 `mapstructure:"rsi_overbought" default:"70" validate:"gt=0,lt=100"`
	RSIOversold      float64 `mapstructure:"rsi_oversold" default:"30" validate:"gt=0,lt=100"`
}

// SignalConfig holds factory and lifecycle parameters plus the volume
// confirmation threshold.
type SignalConfig struct {
	signal.Config  `mapstructure:",squash"`
	MinVolumeRatio float64 `mapstructure:"min_volume_ratio" default:"1.1" validate:"gte=0"`
}

type TradingConfig struct {
	Profile    string             `mapstructure:"profile" default:"day" validate:"oneof=scalp day swing"`
	WindowSize int                `mapstructure:"window_size" default:"200" validate:"gte=30,lte=5000"`
	Indicators IndicatorConfig    `mapstructure:"indicators"`
	Signals    SignalConfig       `mapstructure:"signals"`
	Weights    confluence.Weights `mapstructure:"weights"`
}

// Thresholds collects the scorer trigger levels spread over the sections.
func (t TradingConfig) Thresholds() confluence.Thresholds {
	return confluence.Thresholds{
		RSIOversold:    t.Indicators.RSIOversold,
		RSIOverbought:  t.Indicators.RSIOverbought,
		MinConfidence:  t.Signals.MinConfidence,
		MinVolumeRatio: t.Signals.MinVolumeRatio,
	}
}

type StorageConfig struct {
	Driver          string         `mapstructure:"driver" default:"memory" validate:"oneof=memory postgres"`
	DSN             string         `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	MaxSignals      int            `mapstructure:"max_signals" default:"10000" validate:"gte=0"`
	RetentionDays   int            `mapstructure:"retention_days" default:"30" validate:"gte=1"`
	CleanupInterval time.Duration  `mapstructure:"cleanup_interval" default:"24h" validate:"gte=1m"`
	Archive         archive.Config `mapstructure:"archive"`
}

// Retention is the age after which closed signals are archived.
func (s StorageConfig) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

type EventsConfig struct {
	router.Config `mapstructure:",squash"`
	Webhook       webhook.Config `mapstructure:"webhook"`
	Kafka         kafka.Config   `mapstructure:"kafka"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" default:"true"`
	Path    string `mapstructure:"path" default:"/metrics"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Load reads configuration from file on top of Defaults. A trading.profile
// in the file selects the preset before the file's own values are applied.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand ${VAR} references in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	cfg := Defaults()
	if name := v.GetString("trading.profile"); name != "" && name != cfg.Trading.Profile {
		preset, err := Profile(name)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		cfg.Trading = preset
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}
	cfg.normalize()

	return cfg, nil
}

// Defaults returns a config with every default applied and the day profile.
func Defaults() *Config {
	cfg := &Config{}
	defaults.MustSet(cfg)
	day, _ := Profile("day")
	cfg.Trading = day
	return cfg
}

func (c *Config) normalize() {
	for i := range c.Watchlist {
		c.Watchlist[i].Symbol = collector.NormalizeSymbol(strings.TrimSpace(c.Watchlist[i].Symbol), c.Collector.DefaultQuote)
	}
}

// Symbols returns the watchlist symbols in order.
func (c *Config) Symbols() []string {
	out := make([]string, len(c.Watchlist))
	for i, w := range c.Watchlist {
		out[i] = w.Symbol
	}
	return out
}

// TradingFor resolves the parameters of one watchlist entry. An entry that
// names a different profile gets that preset with the configured weights.
func (c *Config) TradingFor(item WatchlistItem) TradingConfig {
	if item.Profile == "" || item.Profile == c.Trading.Profile {
		return c.Trading
	}
	preset, err := Profile(item.Profile)
	if err != nil {
		return c.Trading
	}
	preset.Weights = c.Trading.Weights
	return preset
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return core.WrapError(core.ErrConfigInvalid, errors.New(strings.Join(msgs, "; ")))
		}
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if err := c.Trading.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("trading: %w", err))
	}
	seen := make(map[string]bool, len(c.Watchlist))
	for _, w := range c.Watchlist {
		if seen[w.Symbol] {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("watchlist: duplicate symbol %s", w.Symbol))
		}
		seen[w.Symbol] = true
		if err := collector.ValidateSymbol(w.Symbol); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("watchlist: %w", err))
		}
		if err := c.TradingFor(w).Validate(); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("watchlist %s: %w", w.Symbol, err))
		}
	}
	if c.Storage.Archive.Type == "s3" && c.Storage.Archive.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("storage.archive.s3.bucket required when archive type is s3"))
	}

	return nil
}

// Validate applies the rules that span several fields.
func (t TradingConfig) Validate() error {
	if err := t.Weights.Validate(); err != nil {
		return err
	}
	ind := t.Indicators
	if ind.RSIOversold >= ind.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", ind.RSIOversold, ind.RSIOverbought)
	}
	if ind.SMAShort >= ind.SMALong {
		return fmt.Errorf("sma_short (%d) must be below sma_long (%d)", ind.SMAShort, ind.SMALong)
	}
	if ind.SMALong >= ind.SMATrend {
		return fmt.Errorf("sma_long (%d) must be below sma_trend (%d)", ind.SMALong, ind.SMATrend)
	}
	if ind.EMAFast >= ind.EMASlow {
		return fmt.Errorf("ema_fast (%d) must be below ema_slow (%d)", ind.EMAFast, ind.EMASlow)
	}
	if need := ind.WarmUp(); t.WindowSize < need {
		return fmt.Errorf("window_size (%d) must hold at least %d samples for the configured periods", t.WindowSize, need)
	}
	return t.Signals.Config.Validate()
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "gte", "gt", "lte", "lt", "len":
		return fmt.Sprintf("%s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
