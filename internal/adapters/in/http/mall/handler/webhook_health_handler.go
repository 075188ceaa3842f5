// internal/adapters/in/http/mall/handler/webhook_health_handler.go
package mallHandler

import (
	"log"
	"net/http"
	"strings"
	"time"

	usecase "plaze/internal/application/usecase"
)

// WebhookHealthHandler exposes ingestion aggregates for operators.
//
//	GET /mall/webhooks/health?window=1h
type WebhookHealthHandler struct {
	uc *usecase.WebhookUsecase
}

func NewWebhookHealthHandler(uc *usecase.WebhookUsecase) http.Handler {
	return &WebhookHealthHandler{uc: uc}
}

func (h *WebhookHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "webhook health handler is not configured")
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	window := time.Hour
	if raw := strings.TrimSpace(r.URL.Query().Get("window")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeErr(w, http.StatusBadRequest, "window must be a positive duration (e.g. 15m, 1h)")
			return
		}
		window = d
	}

	stats, err := h.uc.Health(r.Context(), window)
	if err != nil {
		log.Printf("[mall_webhook_health] error: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
