package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

func TestFallback_FetchQuote(t *testing.T) {
	fail := &mockCollector{name: "fail", quoteErr: errors.New("provider error")}
	ok := &mockCollector{name: "ok", quote: &core.Quote{Symbol: "whatever", Price: 50000}}

	f := NewFallback(fail, ok)
	if f.Name() != "fail+ok" {
		t.Errorf("Name() = %s", f.Name())
	}

	quote, err := f.FetchQuote(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("expected success after fallback, got error: %v", err)
	}
	if quote.Price != 50000 {
		t.Errorf("expected price 50000, got %f", quote.Price)
	}
	if quote.Symbol != "BTCUSDT" {
		t.Errorf("symbol should be normalized to the request, got %s", quote.Symbol)
	}
	if fail.calls != 1 || ok.calls != 1 {
		t.Errorf("expected one call each, got %d and %d", fail.calls, ok.calls)
	}
}

func TestFallback_AllFail(t *testing.T) {
	f := NewFallback(
		&mockCollector{name: "a", quoteErr: errors.New("a down")},
		&mockCollector{name: "b", quoteErr: errors.New("b down")},
	)

	_, err := f.FetchQuote(context.Background(), "BTCUSDT")
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Fatalf("expected ErrCollectorFailed, got %v", err)
	}
}

func TestFallback_FetchHistory_SkipsEmpty(t *testing.T) {
	empty := &mockCollector{name: "empty"}
	full := &mockCollector{name: "full", history: []core.OHLCV{{Close: 1}, {Close: 2}}}

	data, err := NewFallback(empty, full).FetchHistory(context.Background(), "ETHUSDT",
		time.Now().Add(-time.Hour), time.Now(), "1m")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(data) != 2 || data[0].Symbol != "ETHUSDT" {
		t.Errorf("unexpected data %+v", data)
	}

	_, err = NewFallback(empty).FetchHistory(context.Background(), "ETHUSDT", time.Time{}, time.Now(), "1m")
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestFallback_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &mockCollector{name: "a", quote: &core.Quote{Price: 1}}
	if _, err := NewFallback(c).FetchQuote(ctx, "BTCUSDT"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if c.calls != 0 {
		t.Error("no collector should be called after cancellation")
	}
}
