// internal/api/handler/api/analysis.go
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/newthinker/sentinel/internal/api/response"
	"github.com/newthinker/sentinel/internal/app"
	"github.com/newthinker/sentinel/internal/signal"
)

// AnalysisApp defines the interface needed from app.App.
type AnalysisApp interface {
	Analysis(ctx context.Context, symbol string) (app.Analysis, error)
	Performance(symbol string) signal.Stats
}

// AnalysisHandler serves the per-asset analysis and performance summaries.
type AnalysisHandler struct {
	app AnalysisApp
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(app AnalysisApp) *AnalysisHandler {
	return &AnalysisHandler{app: app}
}

// Get returns the latest comprehensive analysis of one asset.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	analysis, err := h.app.Analysis(r.Context(), symbol)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, analysis)
}

// Performance returns the signal performance summary, optionally for one asset.
func (h *AnalysisHandler) Performance(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":  symbol,
		"summary": h.app.Performance(symbol),
	})
}
