package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090

watchlist:
  - symbol: btc
  - symbol: eth/usdt
    profile: swing

storage:
  driver: postgres
  dsn: "postgres://localhost:5432/sentinel"
  archive:
    type: localfs
    path: "/tmp/sentinel/archive"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Archive.Path != "/tmp/sentinel/archive" {
		t.Errorf("unexpected archive path %s", cfg.Storage.Archive.Path)
	}
	if got := cfg.Symbols(); len(got) != 2 || got[0] != "BTCUSDT" || got[1] != "ETHUSDT" {
		t.Errorf("expected normalized symbols, got %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
server:
  port: 8081
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %s", cfg.Server.Host)
	}
	if cfg.Trading.Profile != "day" {
		t.Errorf("expected day profile, got %s", cfg.Trading.Profile)
	}
	if cfg.Trading.Signals.MinConfidence != 60 {
		t.Errorf("expected default min_confidence 60, got %f", cfg.Trading.Signals.MinConfidence)
	}
	if cfg.Storage.CleanupInterval != 24*time.Hour {
		t.Errorf("expected 24h cleanup interval, got %v", cfg.Storage.CleanupInterval)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	cfgPath := writeConfig(t, `
metrics:
  enabled: false
trading:
  signals:
    cooldown_minutes: 0
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Metrics.Enabled {
		t.Error("explicit false should disable metrics")
	}
	if cfg.Trading.Signals.CooldownMinutes != 0 {
		t.Errorf("explicit zero cooldown lost, got %d", cfg.Trading.Signals.CooldownMinutes)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SENTINEL_TEST_DSN", "postgres://db:5432/signals")
	cfgPath := writeConfig(t, `
storage:
  driver: postgres
  dsn: "${SENTINEL_TEST_DSN}"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.DSN != "postgres://db:5432/signals" {
		t.Errorf("expected expanded dsn, got %s", cfg.Storage.DSN)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	cfgPath := writeConfig(t, `
server:
  port: 8080
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env override 7070, got %d", cfg.Server.Port)
	}
}

func TestLoad_Profile(t *testing.T) {
	cfgPath := writeConfig(t, `
trading:
  profile: scalp
  signals:
    min_confidence: 80
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Trading.Indicators.RSIPeriod != 7 {
		t.Errorf("expected scalp rsi period 7, got %d", cfg.Trading.Indicators.RSIPeriod)
	}
	if cfg.Trading.Signals.MinConfidence != 80 {
		t.Errorf("file value should override preset, got %f", cfg.Trading.Signals.MinConfidence)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Collector.Provider != "binance" {
		t.Errorf("expected binance provider, got %s", cfg.Collector.Provider)
	}
	if cfg.Trading.WindowSize != 200 {
		t.Errorf("expected window 200, got %d", cfg.Trading.WindowSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestProfiles_Validate(t *testing.T) {
	for _, name := range Profiles {
		t.Run(name, func(t *testing.T) {
			p, err := Profile(name)
			if err != nil {
				t.Fatal(err)
			}
			if p.Profile != name {
				t.Errorf("expected profile %s, got %s", name, p.Profile)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("preset %s invalid: %v", name, err)
			}
		})
	}

	if _, err := Profile("position"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestTradingFor(t *testing.T) {
	cfg := Defaults()
	cfg.Trading.Weights.RSI = 0.30
	cfg.Trading.Weights.MACD = 0.15

	same := cfg.TradingFor(WatchlistItem{Symbol: "BTCUSDT"})
	if same.Profile != "day" || same.Weights.RSI != 0.30 {
		t.Errorf("expected global trading config, got %+v", same)
	}

	swing := cfg.TradingFor(WatchlistItem{Symbol: "ETHUSDT", Profile: "swing"})
	if swing.Profile != "swing" || swing.Indicators.SMATrend != 200 {
		t.Errorf("expected swing preset, got %+v", swing.Indicators)
	}
	if swing.Weights != cfg.Trading.Weights {
		t.Error("swing entry should keep the configured weights")
	}
}

func TestTradingConfig_Thresholds(t *testing.T) {
	tc, _ := Profile("day")
	th := tc.Thresholds()
	if th.RSIOversold != 30 || th.RSIOverbought != 70 || th.MinConfidence != 60 || th.MinVolumeRatio != 1.1 {
		t.Errorf("unexpected thresholds %+v", th)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port - zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "weights do not sum to one",
			mutate:  func(c *Config) { c.Trading.Weights.RSI = 0.5 },
			wantErr: true,
		},
		{
			name: "oversold above overbought",
			mutate: func(c *Config) {
				c.Trading.Indicators.RSIOversold = 70
				c.Trading.Indicators.RSIOverbought = 60
			},
			wantErr: true,
		},
		{
			name:    "sma short not below long",
			mutate:  func(c *Config) { c.Trading.Indicators.SMAShort = 21 },
			wantErr: true,
		},
		{
			name:    "sma long not below trend",
			mutate:  func(c *Config) { c.Trading.Indicators.SMALong = 50 },
			wantErr: true,
		},
		{
			name: "window shorter than longest period",
			mutate: func(c *Config) {
				c.Trading.Indicators.BBPeriod = 60
				c.Trading.WindowSize = 40
			},
			wantErr: true,
		},
		{
			name:    "ema fast not below slow",
			mutate:  func(c *Config) { c.Trading.Indicators.EMAFast = 30 },
			wantErr: true,
		},
		{
			name:    "targets not increasing",
			mutate:  func(c *Config) { c.Trading.Signals.TargetMultipliers = []float64{2, 2, 3} },
			wantErr: true,
		},
		{
			name:    "min confidence out of range",
			mutate:  func(c *Config) { c.Trading.Signals.MinConfidence = 150 },
			wantErr: true,
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Storage.Driver = "postgres" },
			wantErr: true,
		},
		{
			name:    "s3 archive without bucket",
			mutate:  func(c *Config) { c.Storage.Archive.Type = "s3" },
			wantErr: true,
		},
		{
			name: "duplicate watchlist symbol",
			mutate: func(c *Config) {
				c.Watchlist = append(c.Watchlist, WatchlistItem{Symbol: "BTCUSDT"})
			},
			wantErr: true,
		},
		{
			name: "unknown watchlist profile",
			mutate: func(c *Config) {
				c.Watchlist[0].Profile = "position"
			},
			wantErr: true,
		},
		{
			name: "enabled webhook without url",
			mutate: func(c *Config) {
				c.Events.Webhook.Enabled = true
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Watchlist = []WatchlistItem{{Symbol: "BTCUSDT"}, {Symbol: "ETHUSDT", Profile: "scalp"}}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}
