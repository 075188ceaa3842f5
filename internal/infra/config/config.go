// internal/infra/config/config.go
package config

import "os"

// Config holds process-level environment configuration.
type Config struct {
	Port               string
	GCPCreds           string
	FirestoreProjectID string
	FirebaseProjectID  string

	// Postgres DSN for the webhook event store.
	DatabaseURL string

	// Payment provider. Mode selects which secret pair is used.
	StripeMode              string // "test" | "production"
	StripeTestSecretKey     string
	StripeTestWebhookSecret string
	StripeProdSecretKey     string
	StripeProdWebhookSecret string

	// Allowed CORS origin for the storefront.
	MallOrigin string
}

// Load reads environment variables into a Config.
// Validation happens at infra init, not here.
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "plaze-development")

	cfg := &Config{
		Port:               getenvDefault("PORT", "8080"),
		GCPCreds:           os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID: getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirebaseProjectID:  getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		StripeMode:              getenvDefault("STRIPE_MODE", "test"),
		StripeTestSecretKey:     os.Getenv("TEST_SECRET_KEY"),
		StripeTestWebhookSecret: os.Getenv("TEST_WEBHOOK_SECRET"),
		StripeProdSecretKey:     os.Getenv("PRODUCTION_SECRET_KEY"),
		StripeProdWebhookSecret: os.Getenv("PRODUCTION_WEBHOOK_SECRET"),

		MallOrigin: os.Getenv("MALL_ORIGIN"),
	}

	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
