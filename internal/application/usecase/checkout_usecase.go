// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	carttxdom "plaze/internal/domain/carttx"
)

var (
	ErrCheckoutGatewayMissing = errors.New("checkout: payment gateway is not configured")
	ErrCheckoutEmptyCart      = errors.New("checkout: no pending cart")
	ErrCheckoutZeroAmount     = errors.New("checkout: cart total is zero")
	ErrCheckoutPriceIDEmpty   = errors.New("checkout: priceId is empty")
)

// CustomerRef identifies a provider customer.
type CustomerRef struct {
	ID    string
	Email string
}

// PaymentIntentRef is the thin view of a created payment intent the app
// layer needs. The gateway adapter keeps the provider object verbatim at
// its own boundary.
type PaymentIntentRef struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

// SubscriptionRef is the thin view of a created subscription. Status is
// expected to be "incomplete" until the client-side confirmation step
// completes; creation never assumes success.
type SubscriptionRef struct {
	ID           string
	Status       string
	ClientSecret string
}

// PaymentGateway is the outbound port to the payment provider.
type PaymentGateway interface {
	// CreateOrGetCustomer looks up by email first (idempotent customer
	// identity keyed by email) and creates only when absent.
	CreateOrGetCustomer(ctx context.Context, email, name, userID string) (CustomerRef, error)

	// CreatePaymentIntent creates an intent for amount in minor currency
	// units. customerID may be empty.
	CreatePaymentIntent(ctx context.Context, amount int64, currency, customerID string, metadata map[string]string, description string) (PaymentIntentRef, error)

	// CreateSubscription creates a recurring subscription in an incomplete
	// payment state. trialDays of 0 means no trial.
	CreateSubscription(ctx context.Context, customerID, priceID string, metadata map[string]string, trialDays int64) (SubscriptionRef, error)
}

// CheckoutUsecase turns a pending cart transaction into a provider payment
// intent, and creates community membership subscriptions. Payment outcome is
// never decided here: it arrives later through the webhook flow.
type CheckoutUsecase struct {
	carts   carttxdom.Repository
	gateway PaymentGateway
	clock   Clock
}

func NewCheckoutUsecase(carts carttxdom.Repository, gateway PaymentGateway) *CheckoutUsecase {
	return &CheckoutUsecase{carts: carts, gateway: gateway, clock: systemClock{}}
}

func NewCheckoutUsecaseWithClock(carts carttxdom.Repository, gateway PaymentGateway, clock Clock) *CheckoutUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &CheckoutUsecase{carts: carts, gateway: gateway, clock: clock}
}

// CreatePaymentIntentInput is the app-level input for cart checkout.
type CreatePaymentIntentInput struct {
	Owner    carttxdom.Owner
	Email    string
	FullName string
	Currency string // default "usd"
}

// CreatePaymentIntent creates a provider payment intent for the owner's
// pending cart and links the intent id to the transaction. The intent may
// still require client-side action (3-D Secure); resolving that is the
// provider's responsibility.
func (uc *CheckoutUsecase) CreatePaymentIntent(ctx context.Context, in CreatePaymentIntentInput) (PaymentIntentRef, error) {
	if uc == nil || uc.carts == nil {
		return PaymentIntentRef{}, errors.New("checkout: usecase is not configured")
	}
	if uc.gateway == nil {
		return PaymentIntentRef{}, ErrCheckoutGatewayMissing
	}
	if err := in.Owner.Validate(); err != nil {
		return PaymentIntentRef{}, ErrNoIdentity
	}

	t, err := uc.carts.GetLatestPending(ctx, in.Owner)
	if err != nil {
		return PaymentIntentRef{}, err
	}
	if t == nil {
		return PaymentIntentRef{}, ErrCheckoutEmptyCart
	}
	if t.TotalAmount <= 0 {
		return PaymentIntentRef{}, ErrCheckoutZeroAmount
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}

	// customer is optional: guests check out without one
	customerID := ""
	email := strings.TrimSpace(in.Email)
	if email != "" {
		cust, cErr := uc.gateway.CreateOrGetCustomer(ctx, email, in.FullName, t.UserID)
		if cErr != nil {
			log.Printf("[checkout_uc] WARN: customer lookup/create failed email=%s err=%v (continuing without customer)", email, cErr)
		} else {
			customerID = cust.ID
		}
	}

	metadata := map[string]string{
		"transaction_id": t.ID,
	}
	if t.UserID != "" {
		metadata["user_id"] = t.UserID
	}
	if t.GuestSessionID != "" {
		metadata["guest_session_id"] = t.GuestSessionID
	}

	intent, err := uc.gateway.CreatePaymentIntent(
		ctx,
		t.TotalAmount,
		currency,
		customerID,
		metadata,
		fmt.Sprintf("Cart transaction %s", t.ID),
	)
	if err != nil {
		log.Printf("[checkout_uc] create payment intent failed txId=%s amount=%d err=%v", t.ID, t.TotalAmount, err)
		return PaymentIntentRef{}, err
	}

	now := uc.clock.Now().UTC()
	if err := uc.carts.SetPaymentIntentID(ctx, t.ID, intent.ID, now); err != nil {
		// The intent exists on the provider side; losing the link would
		// orphan the webhook reconciliation, so surface the error.
		log.Printf("[checkout_uc] link payment intent failed txId=%s intentId=%s err=%v", t.ID, intent.ID, err)
		return PaymentIntentRef{}, err
	}

	log.Printf("[checkout_uc] payment intent created txId=%s intentId=%s amount=%d currency=%s", t.ID, intent.ID, intent.Amount, currency)
	return intent, nil
}

// CreateSubscriptionInput is the app-level input for community memberships.
type CreateSubscriptionInput struct {
	Email     string
	FullName  string
	UserID    string
	PriceID   string
	TrialDays int64
	Metadata  map[string]string
}

// CreateSubscription creates a recurring membership subscription. The
// returned subscription is in an incomplete payment state requiring a
// follow-up client-side confirmation; create, do not assume success.
func (uc *CheckoutUsecase) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (SubscriptionRef, error) {
	if uc == nil {
		return SubscriptionRef{}, errors.New("checkout: usecase is not configured")
	}
	if uc.gateway == nil {
		return SubscriptionRef{}, ErrCheckoutGatewayMissing
	}
	priceID := strings.TrimSpace(in.PriceID)
	if priceID == "" {
		return SubscriptionRef{}, ErrCheckoutPriceIDEmpty
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return SubscriptionRef{}, ErrNoIdentity
	}

	cust, err := uc.gateway.CreateOrGetCustomer(ctx, email, in.FullName, in.UserID)
	if err != nil {
		return SubscriptionRef{}, err
	}

	trialDays := in.TrialDays
	if trialDays < 0 {
		trialDays = 0
	}

	sub, err := uc.gateway.CreateSubscription(ctx, cust.ID, priceID, in.Metadata, trialDays)
	if err != nil {
		log.Printf("[checkout_uc] create subscription failed customerId=%s priceId=%s err=%v", cust.ID, priceID, err)
		return SubscriptionRef{}, err
	}

	log.Printf("[checkout_uc] subscription created customerId=%s subId=%s status=%s", cust.ID, sub.ID, sub.Status)
	return sub, nil
}
