// internal/api/handler/api/signals.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/sentinel/internal/api/response"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/storage/signal"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// SignalService is the part of app.App the signal endpoints use.
type SignalService interface {
	ListSignals(ctx context.Context, filter signal.ListFilter) ([]core.Signal, int, error)
	GetSignal(ctx context.Context, id int64) (core.Signal, error)
	CancelSignal(ctx context.Context, id int64) (core.Signal, error)
}

// SignalsHandler handles signal-related API requests.
type SignalsHandler struct {
	svc SignalService
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(svc SignalService) *SignalsHandler {
	return &SignalsHandler{svc: svc}
}

// List returns signals matching query parameters.
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	signals, total, err := h.svc.ListSignals(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.Page(w, signals, total, filter.Limit, filter.Offset)
}

// Get returns a single signal by ID.
func (h *SignalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	sig, err := h.svc.GetSignal(r.Context(), id)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, sig)
}

// Cancel closes an open signal by hand.
func (h *SignalsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	sig, err := h.svc.CancelSignal(r.Context(), id)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, sig)
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("invalid signal id %q", raw))
	}
	return id, nil
}

func parseFilter(r *http.Request) (signal.ListFilter, error) {
	q := r.URL.Query()

	filter := signal.ListFilter{
		Symbol: strings.ToUpper(q.Get("symbol")),
		Limit:  defaultLimit,
	}

	if v := q.Get("type"); v != "" {
		typ := core.SignalType(strings.ToUpper(v))
		if typ != core.SignalBuy && typ != core.SignalSell {
			return filter, invalid("type", v)
		}
		filter.Type = typ
	}

	if v := q.Get("status"); v != "" {
		status := core.Status(strings.ToUpper(v))
		if !status.Valid() {
			return filter, invalid("status", v)
		}
		filter.Status = status
	}

	if v := q.Get("source"); v != "" {
		filter.Source = core.Source(strings.ToUpper(v))
	}

	if v := q.Get("from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return filter, invalid("from", v)
		}
		filter.From = t
	}

	if v := q.Get("to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return filter, invalid("to", v)
		}
		filter.To = t
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, invalid("limit", v)
		}
		filter.Limit = min(n, maxLimit)
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, invalid("offset", v)
		}
		filter.Offset = n
	}

	return filter, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func invalid(param, value string) error {
	return core.WrapError(core.ErrInvalidRequest, fmt.Errorf("%s: %q", param, value))
}
