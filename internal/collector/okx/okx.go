// Package okx polls the OKX v5 public market API. It serves as a fallback
// feed when Binance is unreachable.
package okx

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
	baseURL      = "https://www.okx.com"
	candlesLimit = 300
)

// OKX implements collector.Collector for the OKX exchange
type OKX struct {
	client  *http.Client
	baseURL string
}

// Option configures an OKX collector.
type Option func(*OKX)

// WithBaseURL points the collector at another host.
func WithBaseURL(u string) Option {
	return func(o *OKX) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OKX) {
		if c != nil {
			o.client = c
		}
	}
}

// New creates a new OKX collector
func New(opts ...Option) *OKX {
	o := &OKX{
		client:  collector.NewHTTPClient(10 * time.Second),
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OKX) Name() string {
	return "okx"
}

// toInstID converts BTCUSDT to BTC-USDT.
func toInstID(symbol string) string {
	base, quote := collector.ParseSymbol(symbol)
	if quote == "" {
		return base
	}
	return base + "-" + quote
}

// FetchQuote reads the instrument ticker. volCcy24h is already quoted in the
// quote currency for spot pairs.
func (o *OKX) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s", o.baseURL, url.QueryEscape(toInstID(symbol)))
	var result tickerResponse
	if err := collector.GetJSON(ctx, o.client, u, &result); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("okx ticker %s: %w", symbol, err))
	}
	if result.Code != "0" || len(result.Data) == 0 {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("okx error %s: %s", result.Code, result.Msg))
	}

	data := result.Data[0]
	price, err := strconv.ParseFloat(data.Last, 64)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("okx last %q: %w", data.Last, err))
	}
	open, _ := strconv.ParseFloat(data.Open24h, 64)
	volume, _ := strconv.ParseFloat(data.Vol24h, 64)
	quoteVolume, _ := strconv.ParseFloat(data.VolCcy24h, 64)
	bid, _ := strconv.ParseFloat(data.BidPx, 64)
	ask, _ := strconv.ParseFloat(data.AskPx, 64)
	ts, _ := strconv.ParseInt(data.Ts, 10, 64)

	changePercent := 0.0
	if open > 0 {
		changePercent = (price - open) / open * 100
	}

	return &core.Quote{
		Symbol:        symbol,
		Market:        core.MarketCrypto,
		Price:         price,
		Volume:        volume,
		QuoteVolume:   quoteVolume,
		ChangePercent: changePercent,
		Bid:           bid,
		Ask:           ask,
		Time:          time.UnixMilli(ts).UTC(),
		Source:        "okx",
	}, nil
}

// FetchHistory pages backwards through candles from end to start. OKX returns
// newest first; the result is chronological.
func (o *OKX) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	instID := toInstID(symbol)
	bar := toInterval(interval)
	var newestFirst []core.OHLCV
	after := end.UnixMilli() + 1
	for {
		u := fmt.Sprintf("%s/api/v5/market/history-candles?instId=%s&bar=%s&after=%d&limit=%d",
			o.baseURL, url.QueryEscape(instID), bar, after, candlesLimit)

		var result candleResponse
		if err := collector.GetJSON(ctx, o.client, u, &result); err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("okx candles %s: %w", symbol, err))
		}
		if result.Code != "0" {
			return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("okx error %s: %s", result.Code, result.Msg))
		}

		oldest := after
		for _, candle := range result.Data {
			if len(candle) < 6 {
				continue
			}
			ts, _ := strconv.ParseInt(candle[0], 10, 64)
			oldest = min(oldest, ts)
			if ts < start.UnixMilli() {
				continue
			}
			newestFirst = append(newestFirst, parseCandle(symbol, interval, ts, candle))
		}

		if len(result.Data) < candlesLimit || oldest <= start.UnixMilli() || oldest >= after {
			break
		}
		after = oldest
	}

	data := make([]core.OHLCV, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		data = append(data, newestFirst[i])
	}
	return data, nil
}

func parseCandle(symbol, interval string, ts int64, candle []string) core.OHLCV {
	open, _ := strconv.ParseFloat(candle[1], 64)
	high, _ := strconv.ParseFloat(candle[2], 64)
	low, _ := strconv.ParseFloat(candle[3], 64)
	closePrice, _ := strconv.ParseFloat(candle[4], 64)
	volume, _ := strconv.ParseFloat(candle[5], 64)

	return core.OHLCV{
		Symbol:   symbol,
		Interval: interval,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
		Time:     time.UnixMilli(ts).UTC(),
	}
}

func toInterval(interval string) string {
	switch interval {
	case "1m", "3m", "5m", "15m", "30m":
		return interval
	case "1h":
		return "1H"
	case "2h":
		return "2H"
	case "4h":
		return "4H"
	case "1d":
		return "1D"
	case "1w":
		return "1W"
	default:
		return "1D"
	}
}

type tickerResponse struct {
	Code string   `json:"code"`
	Msg  string   `json:"msg"`
	Data []ticker `json:"data"`
}

type ticker struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	Open24h   string `json:"open24h"`
	Vol24h    string `json:"vol24h"`
	VolCcy24h string `json:"volCcy24h"`
	BidPx     string `json:"bidPx"`
	AskPx     string `json:"askPx"`
	Ts        string `json:"ts"`
}

type candleResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}
