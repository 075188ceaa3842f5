// internal/adapters/out/stripe/client.go
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Mode selects which set of Stripe secrets the client runs with.
type Mode string

const (
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

var (
	ErrInvalidMode      = errors.New("stripe: invalid mode")
	ErrMissingSecret    = errors.New("stripe: missing secret")
	ErrInvalidSignature = errors.New("stripe: invalid webhook signature")
)

// ParseMode normalizes a raw mode string ("test" / "production").
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeTest):
		return ModeTest, nil
	case string(ModeProduction):
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Config carries the mode-dependent secrets. Both values must be present;
// a missing secret is a startup error, never a runtime fallback.
type Config struct {
	Mode          Mode
	SecretKey     string
	WebhookSecret string
}

func (c Config) validate() error {
	if c.Mode != ModeTest && c.Mode != ModeProduction {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("%w: secret key (mode=%s)", ErrMissingSecret, c.Mode)
	}
	if strings.TrimSpace(c.WebhookSecret) == "" {
		return fmt.Errorf("%w: webhook secret (mode=%s)", ErrMissingSecret, c.Mode)
	}
	return nil
}

// Client wraps the Stripe SDK with a fixed secret set.
// It returns SDK objects verbatim; translation into application
// types happens at the DI boundary.
type Client struct {
	api           *client.API
	mode          Mode
	webhookSecret string
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	log.Printf("[stripe] client initialized (mode=%s)", cfg.Mode)

	return &Client{
		api:           api,
		mode:          cfg.Mode,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (c *Client) Mode() Mode { return c.mode }

// CreatePaymentIntent creates a PaymentIntent for the given minor-unit
// amount. Metadata keys are passed through untouched.
func (c *Client) CreatePaymentIntent(
	ctx context.Context,
	amount int64,
	currency string,
	customerID string,
	metadata map[string]string,
	description string,
) (*stripe.PaymentIntent, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe: client is nil")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("stripe: amount must be positive: %d", amount)
	}

	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: metadata,
		},
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	if description != "" {
		params.Description = stripe.String(description)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	log.Printf("[stripe] payment intent created id=%s amount=%d %s", pi.ID, pi.Amount, pi.Currency)
	return pi, nil
}

// CreateOrGetCustomer returns the existing customer with the given email
// when one exists, otherwise creates a new one. Lookup-before-create keeps
// the operation idempotent by email.
func (c *Client) CreateOrGetCustomer(
	ctx context.Context,
	email string,
	name string,
	metadata map[string]string,
) (*stripe.Customer, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe: client is nil")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("stripe: email is required")
	}

	listParams := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := c.api.Customers.List(listParams)
	for iter.Next() {
		cus := iter.Customer()
		log.Printf("[stripe] reusing customer id=%s", cus.ID)
		return cus, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list customers: %w", err)
	}

	createParams := &stripe.CustomerParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: metadata,
		},
		Email: stripe.String(email),
	}
	if name != "" {
		createParams.Name = stripe.String(name)
	}

	cus, err := c.api.Customers.New(createParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: create customer: %w", err)
	}

	log.Printf("[stripe] customer created id=%s", cus.ID)
	return cus, nil
}

// CreateSubscription starts a subscription in default_incomplete payment
// behavior so the first invoice's PaymentIntent can be confirmed client
// side. The latest invoice is expanded for that reason.
func (c *Client) CreateSubscription(
	ctx context.Context,
	customerID string,
	priceID string,
	metadata map[string]string,
	trialDays int64,
) (*stripe.Subscription, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe: client is nil")
	}
	if customerID == "" || priceID == "" {
		return nil, errors.New("stripe: customer id and price id are required")
	}

	params := &stripe.SubscriptionParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: metadata,
		},
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	if trialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(trialDays)
	}
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create subscription: %w", err)
	}

	log.Printf("[stripe] subscription created id=%s status=%s", sub.ID, sub.Status)
	return sub, nil
}

// ConstructWebhookEvent verifies the Stripe-Signature header against the
// configured webhook secret and decodes the event. Verification failure
// is reported as ErrInvalidSignature so callers can reject the request.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if c == nil {
		return stripe.Event{}, errors.New("stripe: client is nil")
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}
