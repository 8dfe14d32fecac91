package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/sirupsen/logrus"
)

var (
	errAPIKeyMissing  = errors.New("api key is required")
	errAPIKeyInvalid  = errors.New("invalid api key")
	errAPIKeyInactive = errors.New("api key is inactive")
	errAPIKeyExpired  = errors.New("api key is expired")
)

type quoteSubscriber interface {
	Subscribe(ctx context.Context, req entity.SubscribeRequest) error
	Subscriptions() []entity.SubscribeRequest
}

type subscriptionStore interface {
	Upsert(ctx context.Context, req entity.SubscribeRequest) error
	MarkSubscribed(ctx context.Context, req entity.SubscribeRequest, at time.Time) error
}

type SubscribeRequest struct {
	ApiKey   string `json:"api_key"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}

type SubscriptionResponse struct {
	VtSymbol string `json:"vt_symbol"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}

type Handler struct {
	quotes quoteSubscriber
	store  subscriptionStore
}

func NewSubscriptionHTTPHandler(quotes quoteSubscriber, store subscriptionStore) *Handler {
	return &Handler{quotes: quotes, store: store}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/market-data/v1/subscriptions", h.Subscriptions)
}

func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodPost:
		h.subscribe(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (h *Handler) list(w http.ResponseWriter) {
	subs := h.quotes.Subscriptions()
	resp := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, mapSubscription(sub))
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	if err := validateAPIKey(resolveAPIKey(r, &req)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
		return
	}

	if strings.TrimSpace(req.Symbol) == "" || strings.TrimSpace(req.Exchange) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing required fields"})
		return
	}

	subReq := entity.SubscribeRequest{
		Symbol:   strings.TrimSpace(req.Symbol),
		Exchange: entity.Exchange(strings.ToUpper(strings.TrimSpace(req.Exchange))),
	}
	logger := logrus.WithField("vt_symbol", subReq.VtSymbol())

	err := h.quotes.Subscribe(r.Context(), subReq)
	if errors.Is(err, entity.ErrUnsupportedExchange) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	// the request stays registered and is replayed on reconnect, so persist it even when wsq failed
	if storeErr := h.store.Upsert(r.Context(), subReq); storeErr != nil {
		logger.Error(storeErr)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		return
	}

	if err != nil {
		logger.Warn(err)
		writeJSON(w, http.StatusAccepted, map[string]any{"data": mapSubscription(subReq), "status": "pending"})
		return
	}

	if err := h.store.MarkSubscribed(r.Context(), subReq, time.Now().UTC()); err != nil {
		logger.Error(err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": mapSubscription(subReq), "status": "subscribed"})
}

func mapSubscription(req entity.SubscribeRequest) SubscriptionResponse {
	return SubscriptionResponse{
		VtSymbol: req.VtSymbol(),
		Symbol:   req.Symbol,
		Exchange: string(req.Exchange),
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveAPIKey(r *http.Request, req *SubscribeRequest) string {
	if headerKey := strings.TrimSpace(r.Header.Get("X-API-Key")); headerKey != "" {
		return headerKey
	}

	return strings.TrimSpace(req.ApiKey)
}

func validateAPIKey(rawAPIKey string) error {
	apiKey := strings.TrimSpace(rawAPIKey)
	if apiKey == "" {
		return errAPIKeyMissing
	}

	if config.Env == nil || len(config.Env.APIKeys) == 0 {
		return errAPIKeyInvalid
	}

	now := time.Now().UTC()
	for _, candidate := range config.Env.APIKeys {
		storedKey := strings.TrimSpace(candidate.Key)
		if storedKey == "" {
			continue
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(storedKey)) != 1 {
			continue
		}

		if !candidate.Active {
			return errAPIKeyInactive
		}

		expiredAt, hasExpiry, err := parseExpiry(candidate.ExpiredAt)
		if err != nil {
			return errAPIKeyInvalid
		}
		if !hasExpiry || now.Before(expiredAt) {
			return nil
		}

		return errAPIKeyExpired
	}

	return errAPIKeyInvalid
}

func parseExpiry(value any) (time.Time, bool, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v.UTC(), !v.IsZero(), nil
	case string:
		raw := strings.TrimSpace(v)
		if raw == "" {
			return time.Time{}, false, nil
		}

		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC(), true, nil
		}

		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, false, err
		}

		// a bare date stays valid through that day
		return parsed.UTC().Add(24 * time.Hour), true, nil
	default:
		return time.Time{}, false, errors.New("unsupported expiry type")
	}
}
