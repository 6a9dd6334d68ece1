package collector

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

type mockCollector struct {
	name       string
	quote      *core.Quote
	history    []core.OHLCV
	quoteErr   error
	historyErr error
	calls      int
}

func (m *mockCollector) Name() string { return m.name }

func (m *mockCollector) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	m.calls++
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	q := *m.quote
	return &q, nil
}

func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	m.calls++
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return append([]core.OHLCV(nil), m.history...), nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "mock"})

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered collector")
	}
	if c.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", c.Name())
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "okx"})
	r.Register(&mockCollector{name: "binance"})

	names := r.Names()
	if len(names) != 2 || names[0] != "binance" || names[1] != "okx" {
		t.Errorf("Names() = %v, want [binance okx]", names)
	}
}

func TestRegistry_Chain(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "binance"})
	r.Register(&mockCollector{name: "okx"})

	single, err := r.Chain("binance")
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if single.Name() != "binance" {
		t.Errorf("single chain should return the collector itself, got %s", single.Name())
	}

	multi, err := r.Chain("binance", "okx", "binance")
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	fb, ok := multi.(*Fallback)
	if !ok {
		t.Fatalf("expected *Fallback, got %T", multi)
	}
	if len(fb.collectors) != 2 {
		t.Errorf("duplicates should be skipped, got %d collectors", len(fb.collectors))
	}

	if _, err := r.Chain("kraken"); err == nil {
		t.Error("expected error for unknown collector")
	}
}
