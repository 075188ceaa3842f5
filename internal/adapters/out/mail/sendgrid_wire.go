// internal/adapters/out/mail/sendgrid_wire.go
package mail

import (
	"log"
	"os"
)

const (
	envSendGridAPIKey = "SENDGRID_API_KEY"
	envSendGridFrom   = "SENDGRID_FROM"
	envMallBaseURL    = "MALL_BASE_URL"
)

// NewReceiptMailerWithSendGrid builds a ReceiptMailer backed by SendGrid.
//
// - SENDGRID_API_KEY : SendGrid API key
// - SENDGRID_FROM    : sender address
// - MALL_BASE_URL    : e.g. https://plaze.app
func NewReceiptMailerWithSendGrid(resolver AddressResolver) *ReceiptMailer {
	apiKey := os.Getenv(envSendGridAPIKey)
	fromAddr := os.Getenv(envSendGridFrom)
	mallBaseURL := os.Getenv(envMallBaseURL)

	if apiKey == "" {
		log.Printf("[mail] WARN: SENDGRID_API_KEY is empty. ReceiptMailer will fail to send mail.")
	}
	if fromAddr == "" {
		log.Printf("[mail] WARN: SENDGRID_FROM is empty. ReceiptMailer will fail to send mail.")
	}
	if mallBaseURL == "" {
		mallBaseURL = "https://plaze.app"
		log.Printf("[mail] INFO: MALL_BASE_URL is empty. default=%s", mallBaseURL)
	}

	client := NewSendGridClient(apiKey)
	mailer := NewReceiptMailer(client, resolver, fromAddr, mallBaseURL)

	log.Printf("[mail] ReceiptMailerWithSendGrid initialized. from=%s baseURL=%s",
		fromAddr, mallBaseURL)

	return mailer
}
