// internal/adapters/in/http/mall/handler/checkout_handler.go
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

// CheckoutHandler serves payment initiation.
//
//	POST /mall/me/checkout/payment-intent -> create an intent for the pending cart
//	POST /mall/me/checkout/subscription   -> start a membership subscription (signed-in only)
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) http.Handler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")

	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "checkout handler is not configured")
		return
	}
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch {
	case strings.HasSuffix(path, "/payment-intent"):
		h.handlePaymentIntent(w, r, start)
	case strings.HasSuffix(path, "/subscription"):
		h.handleSubscription(w, r, start)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

type paymentIntentInput struct {
	Currency string `json:"currency"`
}

func (h *CheckoutHandler) handlePaymentIntent(w http.ResponseWriter, r *http.Request, start time.Time) {
	owner, ok := middleware.CurrentOwner(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "no identity")
		return
	}

	var in paymentIntentInput
	_ = json.NewDecoder(r.Body).Decode(&in) // body is optional

	_, email, _ := middleware.CurrentUserUIDAndEmail(r)

	ref, err := h.uc.CreatePaymentIntent(r.Context(), usecase.CreatePaymentIntentInput{
		Owner:    owner,
		Email:    email,
		Currency: strings.TrimSpace(in.Currency),
	})
	if err != nil {
		h.writeCheckoutErr(w, err)
		return
	}

	log.Printf("[mall_checkout_handler] payment intent ok id=%s amount=%d elapsed=%s",
		ref.ID, ref.Amount, time.Since(start))
	writeJSON(w, http.StatusCreated, ref)
}

type subscriptionInput struct {
	PriceID   string `json:"priceId"`
	TrialDays int64  `json:"trialDays"`
}

func (h *CheckoutHandler) handleSubscription(w http.ResponseWriter, r *http.Request, start time.Time) {
	uid, email, ok := middleware.CurrentUserUIDAndEmail(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "sign-in required")
		return
	}

	var in subscriptionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ref, err := h.uc.CreateSubscription(r.Context(), usecase.CreateSubscriptionInput{
		Email:     email,
		UserID:    uid,
		PriceID:   in.PriceID,
		TrialDays: in.TrialDays,
	})
	if err != nil {
		h.writeCheckoutErr(w, err)
		return
	}

	log.Printf("[mall_checkout_handler] subscription ok id=%s status=%s elapsed=%s",
		ref.ID, ref.Status, time.Since(start))
	writeJSON(w, http.StatusCreated, ref)
}

func (h *CheckoutHandler) writeCheckoutErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrNoIdentity):
		writeErr(w, http.StatusUnauthorized, "no identity")
	case errors.Is(err, usecase.ErrCheckoutEmptyCart):
		writeErr(w, http.StatusConflict, "no pending cart to check out")
	case errors.Is(err, usecase.ErrCheckoutZeroAmount):
		writeErr(w, http.StatusConflict, "cart total is zero")
	case errors.Is(err, usecase.ErrCheckoutPriceIDEmpty):
		writeErr(w, http.StatusBadRequest, "priceId is required")
	default:
		log.Printf("[mall_checkout_handler] error: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
