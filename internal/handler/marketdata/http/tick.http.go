package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/sirupsen/logrus"
)

type latestTickReader interface {
	GetLatest(ctx context.Context, vtSymbol string) (entity.Tick, bool, error)
}

type TickHandler struct {
	cache latestTickReader
}

func NewTickHTTPHandler(cache latestTickReader) *TickHandler {
	return &TickHandler{cache: cache}
}

func (h *TickHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/market-data/v1/ticks/latest", h.GetLatest)
}

// GetLatest returns the snapshot market-data-worker cached for vt_symbol.
func (h *TickHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	vtSymbol := strings.TrimSpace(r.URL.Query().Get("vt_symbol"))
	if vtSymbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "vt_symbol is required"})
		return
	}

	tick, ok, err := h.cache.GetLatest(r.Context(), vtSymbol)
	if err != nil {
		logrus.WithField("vt_symbol", vtSymbol).Error(err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no tick cached for " + vtSymbol})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": tick})
}
