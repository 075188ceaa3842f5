// internal/adapters/out/mail/receipt_mailer.go
package mail

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// EmailClient abstracts the concrete delivery client (SendGrid, SMTP, ...).
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// AddressResolver resolves an account user id to its mail address.
// The identity provider (Firebase Auth) supplies the implementation.
type AddressResolver interface {
	EmailByUserID(ctx context.Context, userID string) (string, error)
}

// ReceiptMailer sends the payment receipt after a transaction settles.
// It implements usecase.ReceiptMailer.
type ReceiptMailer struct {
	client      EmailClient
	resolver    AddressResolver
	fromAddress string
	mallBaseURL string
}

func NewReceiptMailer(client EmailClient, resolver AddressResolver, fromAddress, mallBaseURL string) *ReceiptMailer {
	base := strings.TrimRight(mallBaseURL, "/")
	return &ReceiptMailer{
		client:      client,
		resolver:    resolver,
		fromAddress: fromAddress,
		mallBaseURL: base,
	}
}

func (m *ReceiptMailer) buildOrderURL(transactionID string) string {
	return fmt.Sprintf("%s/orders/%s", m.mallBaseURL, strings.TrimSpace(transactionID))
}

// SendPaymentReceipt mails a plain-text receipt for a paid transaction.
// The amount is in minor units.
func (m *ReceiptMailer) SendPaymentReceipt(
	ctx context.Context,
	userID string,
	transactionID string,
	amount int64,
) error {
	toEmail, err := m.resolver.EmailByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve address for user %s: %w", userID, err)
	}
	if strings.TrimSpace(toEmail) == "" {
		log.Printf("[mail] receipt skipped: user %s has no email", userID)
		return nil
	}

	subject := "Your Plaze order has been paid"

	body := fmt.Sprintf(
		`Thank you for your purchase.

Your payment has been confirmed.

  Order ID : %s
  Amount   : %d

You can review the order here:

  %s

If you did not make this purchase, please contact support.

--
Plaze`,
		strings.TrimSpace(transactionID),
		amount,
		m.buildOrderURL(transactionID),
	)

	return m.client.Send(ctx, m.fromAddress, strings.TrimSpace(toEmail), subject, body)
}
