// Package binance polls the Binance spot REST API.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/core"
)

const (
	baseURL = "https://api.binance.com"

	// Binance caps a klines page at 1000 bars.
	klinesLimit = 1000
)

// Binance implements collector.Collector for the Binance exchange
type Binance struct {
	client  *http.Client
	baseURL string
}

// Option configures a Binance collector.
type Option func(*Binance)

// WithBaseURL points the collector at another host (testnet, proxy or test server).
func WithBaseURL(u string) Option {
	return func(b *Binance) {
		if u != "" {
			b.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Binance) {
		if c != nil {
			b.client = c
		}
	}
}

// New creates a new Binance collector
func New(opts ...Option) *Binance {
	b := &Binance{
		client:  collector.NewHTTPClient(10 * time.Second),
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

// FetchQuote reads the 24hr rolling ticker. Volume is reported in the quote
// asset as volume·lastPrice.
func (b *Binance) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.baseURL, url.QueryEscape(symbol))
	var result ticker24hr
	if err := collector.GetJSON(ctx, b.client, u, &result); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("binance ticker %s: %w", symbol, err))
	}

	price, err := strconv.ParseFloat(result.LastPrice, 64)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("binance lastPrice %q: %w", result.LastPrice, err))
	}
	volume, _ := strconv.ParseFloat(result.Volume, 64)
	changePercent, _ := strconv.ParseFloat(result.PriceChangePercent, 64)
	bid, _ := strconv.ParseFloat(result.BidPrice, 64)
	ask, _ := strconv.ParseFloat(result.AskPrice, 64)

	return &core.Quote{
		Symbol:        symbol,
		Market:        core.MarketCrypto,
		Price:         price,
		Volume:        volume,
		QuoteVolume:   volume * price,
		ChangePercent: changePercent,
		Bid:           bid,
		Ask:           ask,
		Time:          time.UnixMilli(result.CloseTime).UTC(),
		Source:        "binance",
	}, nil
}

// FetchHistory pages through klines from start to end.
func (b *Binance) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	bi := toInterval(interval)
	var data []core.OHLCV
	cursor := start.UnixMilli()
	for cursor < end.UnixMilli() {
		u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=%d",
			b.baseURL, url.QueryEscape(symbol), bi, cursor, end.UnixMilli(), klinesLimit)

		var klines [][]any
		if err := collector.GetJSON(ctx, b.client, u, &klines); err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("binance klines %s: %w", symbol, err))
		}

		page := parseKlines(symbol, interval, klines)
		data = append(data, page...)
		if len(klines) < klinesLimit || len(page) == 0 {
			break
		}
		next := page[len(page)-1].Time.UnixMilli() + 1
		if next <= cursor {
			break
		}
		cursor = next
	}
	return data, nil
}

func parseKlines(symbol, interval string, klines [][]any) []core.OHLCV {
	data := make([]core.OHLCV, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}

		openTime, _ := k[0].(float64)
		bar := core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     parseField(k[1]),
			High:     parseField(k[2]),
			Low:      parseField(k[3]),
			Close:    parseField(k[4]),
			Volume:   parseField(k[5]),
			Time:     time.UnixMilli(int64(openTime)).UTC(),
		}
		if bar.Close <= 0 {
			continue
		}
		data = append(data, bar)
	}
	return data
}

func parseField(v any) float64 {
	s, _ := v.(string)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func toInterval(interval string) string {
	switch interval {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "12h", "1d", "1w":
		return interval
	default:
		return "1d"
	}
}

type ticker24hr struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	Volume             string `json:"volume"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	CloseTime          int64  `json:"closeTime"`
}
