package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ collector.Collector = (*OKX)(nil)

func TestToInstID(t *testing.T) {
	tests := []struct {
		symbol   string
		expected string
	}{
		{"BTCUSDT", "BTC-USDT"},
		{"ETHUSDT", "ETH-USDT"},
		{"SOLUSDT", "SOL-USDT"},
		{"ETHBTC", "ETH-BTC"},
	}
	for _, tc := range tests {
		if got := toInstID(tc.symbol); got != tc.expected {
			t.Errorf("toInstID(%s) = %s, want %s", tc.symbol, got, tc.expected)
		}
	}
}

func TestToInterval(t *testing.T) {
	tests := map[string]string{"1m": "1m", "1h": "1H", "4h": "4H", "1d": "1D", "bogus": "1D"}
	for in, want := range tests {
		if got := toInterval(in); got != want {
			t.Errorf("toInterval(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestOKX_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("instId"))
		fmt.Fprint(w, `{"code":"0","msg":"","data":[{"instId":"BTC-USDT","last":"110","open24h":"100",
			"vol24h":"3","volCcy24h":"330","bidPx":"109.9","askPx":"110.1","ts":"1700000000000"}]}`)
	}))
	defer srv.Close()

	q, err := New(WithBaseURL(srv.URL)).FetchQuote(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 110.0, q.Price)
	assert.Equal(t, 330.0, q.QuoteVolume)
	assert.InDelta(t, 10.0, q.ChangePercent, 1e-9)
	assert.Equal(t, "okx", q.Source)
}

func TestOKX_FetchQuote_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).FetchQuote(context.Background(), "NOPEUSDT")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCollectorFailed)
	assert.Contains(t, err.Error(), "51001")
}

func TestOKX_FetchHistory_Chronological(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// newest first, one bar before start that must be dropped
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[
			["%d","103","104","102","103","1"],
			["%d","102","103","101","102","1"],
			["%d","101","102","100","101","1"],
			["%d","99","100","98","99","1"]]}`,
			start.Add(2*time.Hour).UnixMilli(), start.Add(time.Hour).UnixMilli(),
			start.UnixMilli(), start.Add(-time.Hour).UnixMilli())
	}))
	defer srv.Close()

	bars, err := New(WithBaseURL(srv.URL)).FetchHistory(context.Background(), "BTCUSDT",
		start, start.Add(3*time.Hour), "1h")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 103.0, bars[2].Close)
}
