// internal/platform/di/mall/adapter.go
package mall

import (
	"context"
	"errors"

	stripeadapter "plaze/internal/adapters/out/stripe"
	usecase "plaze/internal/application/usecase"
)

// stripeGatewayAdapter maps the provider SDK objects into the thin refs
// the application layer works with. The SDK types stop here.
type stripeGatewayAdapter struct {
	client *stripeadapter.Client
}

func newStripeGatewayAdapter(client *stripeadapter.Client) *stripeGatewayAdapter {
	return &stripeGatewayAdapter{client: client}
}

var _ usecase.PaymentGateway = (*stripeGatewayAdapter)(nil)

func (a *stripeGatewayAdapter) CreateOrGetCustomer(
	ctx context.Context,
	email, name, userID string,
) (usecase.CustomerRef, error) {
	if a == nil || a.client == nil {
		return usecase.CustomerRef{}, errors.New("mall.stripeGatewayAdapter: client is nil")
	}

	var metadata map[string]string
	if userID != "" {
		metadata = map[string]string{"user_id": userID}
	}

	cus, err := a.client.CreateOrGetCustomer(ctx, email, name, metadata)
	if err != nil {
		return usecase.CustomerRef{}, err
	}

	return usecase.CustomerRef{
		ID:    cus.ID,
		Email: cus.Email,
	}, nil
}

func (a *stripeGatewayAdapter) CreatePaymentIntent(
	ctx context.Context,
	amount int64,
	currency, customerID string,
	metadata map[string]string,
	description string,
) (usecase.PaymentIntentRef, error) {
	if a == nil || a.client == nil {
		return usecase.PaymentIntentRef{}, errors.New("mall.stripeGatewayAdapter: client is nil")
	}

	pi, err := a.client.CreatePaymentIntent(ctx, amount, currency, customerID, metadata, description)
	if err != nil {
		return usecase.PaymentIntentRef{}, err
	}

	return usecase.PaymentIntentRef{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

func (a *stripeGatewayAdapter) CreateSubscription(
	ctx context.Context,
	customerID, priceID string,
	metadata map[string]string,
	trialDays int64,
) (usecase.SubscriptionRef, error) {
	if a == nil || a.client == nil {
		return usecase.SubscriptionRef{}, errors.New("mall.stripeGatewayAdapter: client is nil")
	}

	sub, err := a.client.CreateSubscription(ctx, customerID, priceID, metadata, trialDays)
	if err != nil {
		return usecase.SubscriptionRef{}, err
	}

	ref := usecase.SubscriptionRef{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	// expanded latest_invoice.payment_intent carries the client secret for
	// the initial confirmation
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		ref.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return ref, nil
}
