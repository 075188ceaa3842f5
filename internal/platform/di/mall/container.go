// internal/platform/di/mall/container.go
package mall

import (
	"context"
	"errors"
	"fmt"
	"log"

	outdb "plaze/internal/adapters/out/db"
	outfs "plaze/internal/adapters/out/firestore"
	outmail "plaze/internal/adapters/out/mail"
	usecase "plaze/internal/application/usecase"
	eventdom "plaze/internal/domain/webhookevent"
	shared "plaze/internal/platform/di/shared"
)

const StripeWebhookPath = "/mall/webhooks/stripe"

// Container is the Mall DI container.
// Pure DI: build deps only. No routing branching.
type Container struct {
	Infra *shared.Infra

	CartQueryUC *usecase.CartQueryUsecase
	CartUC      *usecase.CartUsecase
	CheckoutUC  *usecase.CheckoutUsecase
	WebhookUC   *usecase.WebhookUsecase

	// stopFeed tears down the event-store subscription.
	stopFeed func()
}

// NewContainer wires repositories, gateways and usecases on top of shared
// infra. It also starts the webhook event feed subscriber, which survives
// connection loss via its own backoff.
func NewContainer(ctx context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil {
		return nil, errors.New("mall.container: infra is nil")
	}
	if infra.Firestore == nil {
		return nil, errors.New("mall.container: firestore client is nil")
	}
	if infra.DB == nil {
		return nil, errors.New("mall.container: postgres handle is nil")
	}
	if infra.Stripe == nil {
		return nil, errors.New("mall.container: stripe client is nil")
	}

	cont := &Container{Infra: infra}

	// outbound adapters
	cartRepo := outfs.NewCartTxRepositoryFS(infra.Firestore)
	productRepo := outfs.NewProductRepositoryFS(infra.Firestore)
	eventRepo := outdb.NewWebhookEventRepositoryPG(infra.DB, infra.DatabaseURL)
	if err := eventRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("mall.container: webhook_events schema: %w", err)
	}
	gateway := newStripeGatewayAdapter(infra.Stripe)

	// receipt mail is best-effort; without Firebase Auth there is no
	// uid -> email mapping, so the mailer stays nil and reconcile skips it
	var mailer usecase.ReceiptMailer
	if infra.FirebaseAuth != nil {
		resolver := shared.NewFirebaseAddressResolver(infra.FirebaseAuth)
		mailer = outmail.NewReceiptMailerWithSendGrid(resolver)
	} else {
		log.Printf("[mall.container] WARN: firebase auth unavailable; receipt mail disabled")
	}

	// usecases
	cont.CartQueryUC = usecase.NewCartQueryUsecase(cartRepo, productRepo)
	cont.CartUC = usecase.NewCartUsecase(cartRepo, productRepo)
	cont.CheckoutUC = usecase.NewCheckoutUsecase(cartRepo, gateway)
	cont.WebhookUC = usecase.NewWebhookUsecase(eventRepo, cartRepo, mailer)

	// event feed: operational visibility into ingestion, all types
	stop, err := cont.WebhookUC.Subscribe(ctx, eventdom.SubscribeFilter{}, func(n eventdom.Notification) {
		log.Printf("[mall.feed] event id=%s type=%s intentId=%s processed=%t",
			n.EventID, n.Type, n.PaymentIntentID, n.Processed)
	})
	if err != nil {
		log.Printf("[mall.container] WARN: event feed subscribe failed: %v", err)
	} else {
		cont.stopFeed = stop
	}

	log.Printf("[mall.container] initialized")
	return cont, nil
}

// Close stops background work owned by the container. Shared infra is
// closed by its owner, not here.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.stopFeed != nil {
		c.stopFeed()
	}
}
