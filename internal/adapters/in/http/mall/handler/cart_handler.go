// internal/adapters/in/http/mall/handler/cart_handler.go
package mallHandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"plaze/internal/adapters/in/http/middleware"
	usecase "plaze/internal/application/usecase"
)

// CartHandler serves the buyer cart endpoints.
//
//	GET    /mall/me/cart        -> current cart snapshot (empty snapshot when none)
//	POST   /mall/me/cart/items  -> add one unit of a product variant
//	DELETE /mall/me/cart/items  -> remove a line entirely
type CartHandler struct {
	query *usecase.CartQueryUsecase
	uc    *usecase.CartUsecase
}

func NewCartHandler(query *usecase.CartQueryUsecase, uc *usecase.CartUsecase) http.Handler {
	return &CartHandler{query: query, uc: uc}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	log.Printf("[mall_cart_handler] enter method=%s path=%q configured(query=%t uc=%t)",
		r.Method, path, h.query != nil, h.uc != nil)

	if h.query == nil || h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	isItems := strings.HasSuffix(path, "/cart/items")

	switch {
	case r.Method == http.MethodGet && !isItems:
		h.handleGet(w, r, start)
	case r.Method == http.MethodPost && isItems:
		h.handleAddItem(w, r, start)
	case r.Method == http.MethodDelete && isItems:
		h.handleRemoveItem(w, r, start)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request, start time.Time) {
	owner, ok := middleware.CurrentOwner(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "no identity")
		return
	}

	snap, err := h.query.FetchCart(r.Context(), owner)
	if err != nil {
		h.writeUsecaseErr(w, err)
		return
	}

	log.Printf("[mall_cart_handler] GET ok txId=%q items=%d elapsed=%s",
		snap.TransactionID, len(snap.Items), time.Since(start))
	writeJSON(w, http.StatusOK, snap)
}

type addItemInput struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request, start time.Time) {
	owner, ok := middleware.CurrentOwner(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "no identity")
		return
	}

	var in addItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(in.ProductID) == "" || strings.TrimSpace(in.VariantID) == "" {
		writeErr(w, http.StatusBadRequest, "productId and variantId are required")
		return
	}

	// current view first so repeat adds land on the same transaction
	snap, err := h.query.FetchCart(r.Context(), owner)
	if err != nil {
		h.writeUsecaseErr(w, err)
		return
	}

	updated, err := h.uc.AddItem(r.Context(), snap, in.ProductID, in.VariantID, owner)
	if err != nil {
		h.writeUsecaseErr(w, err)
		return
	}

	log.Printf("[mall_cart_handler] POST items ok txId=%q productId=%s variantId=%s elapsed=%s",
		updated.TransactionID, in.ProductID, in.VariantID, time.Since(start))
	writeJSON(w, http.StatusOK, updated)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request, start time.Time) {
	owner, ok := middleware.CurrentOwner(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "no identity")
		return
	}

	// ids come from the query string; DELETE bodies are unreliable across proxies
	productID := strings.TrimSpace(r.URL.Query().Get("productId"))
	variantID := strings.TrimSpace(r.URL.Query().Get("variantId"))
	if productID == "" || variantID == "" {
		writeErr(w, http.StatusBadRequest, "productId and variantId are required")
		return
	}

	if err := h.uc.RemoveItem(r.Context(), owner, productID, variantID); err != nil {
		h.writeUsecaseErr(w, err)
		return
	}

	log.Printf("[mall_cart_handler] DELETE items ok productId=%s variantId=%s elapsed=%s",
		productID, variantID, time.Since(start))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) writeUsecaseErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrNoIdentity):
		writeErr(w, http.StatusUnauthorized, "no identity")
	case errors.Is(err, usecase.ErrCartInvalidArgument):
		writeErr(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, usecase.ErrVariantNotFound):
		writeErr(w, http.StatusNotFound, "product variant not found")
	default:
		log.Printf("[mall_cart_handler] error: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
