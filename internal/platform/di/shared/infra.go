// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"

	stripeadapter "plaze/internal/adapters/out/stripe"
	appcfg "plaze/internal/infra/config"
)

// Secret Manager secret ids for production Stripe credentials. Used only
// when the corresponding env var is empty.
const (
	smStripeSecretKey     = "stripe-production-secret-key"
	smStripeWebhookSecret = "stripe-production-webhook-secret"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore/FirebaseAuth/SecretManager/Postgres)
// - owns the payment provider client
//
// IMPORTANT:
// Infra must NOT depend on routers, handlers, or usecases.
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	DB            *sql.DB
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client

	// Payment provider (strict; a server that cannot verify webhooks
	// must not start)
	Stripe *stripeadapter.Client

	// Postgres DSN, kept for the LISTEN/NOTIFY subscriber which opens
	// its own connection.
	DatabaseURL string
}

// NewInfra initializes shared infra.
// Firestore, Postgres and Stripe are strict (return error).
// Firebase/Auth and SecretManager are best-effort (warn + continue).
func NewInfra(ctx context.Context) (*Infra, error) {
	cfg := appcfg.Load()
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}

	projectID := strings.TrimSpace(cfg.FirestoreProjectID)
	if projectID == "" {
		return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}

	inf := &Infra{
		Config:      cfg,
		ProjectID:   projectID,
		DatabaseURL: strings.TrimSpace(cfg.DatabaseURL),
	}

	var clientOpts []option.ClientOption
	if credFile := strings.TrimSpace(cfg.GCPCreds); credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[shared.infra] Using credentials file for GCP clients")
	} else {
		log.Printf("[shared.infra] Using Application Default Credentials")
	}

	// 1) Optional: Secret Manager (production Stripe secrets fallback)
	{
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: secretmanager.NewClient failed: %v (SecretManager-dependent features disabled)", err)
			sm = nil
		}
		inf.SecretManager = sm
	}

	// 2) Firestore (strict)
	{
		fsClient, err := firestore.NewClient(ctx, inf.ProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", inf.ProjectID, err)
		}
		inf.Firestore = fsClient
		log.Printf("[shared.infra] Firestore connected project=%s", inf.ProjectID)
	}

	// 3) Postgres (strict; webhook event store)
	{
		if inf.DatabaseURL == "" {
			_ = inf.Firestore.Close()
			return nil, errors.New("shared.infra: DATABASE_URL is empty")
		}
		db, err := sql.Open("postgres", inf.DatabaseURL)
		if err != nil {
			_ = inf.Firestore.Close()
			return nil, fmt.Errorf("shared.infra: sql.Open failed: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			_ = db.Close()
			_ = inf.Firestore.Close()
			return nil, fmt.Errorf("shared.infra: postgres ping failed: %w", err)
		}
		inf.DB = db
		log.Printf("[shared.infra] Postgres connected")
	}

	// 4) Stripe (strict; wrong mode or missing secret must fail startup)
	{
		sc, err := inf.buildStripeClient(ctx)
		if err != nil {
			_ = inf.DB.Close()
			_ = inf.Firestore.Close()
			return nil, fmt.Errorf("shared.infra: stripe init failed: %w", err)
		}
		inf.Stripe = sc
	}

	// 5) Firebase App/Auth (best-effort; guests can still shop)
	{
		fbCfg := &firebase.Config{ProjectID: strings.TrimSpace(cfg.FirebaseProjectID)}
		fbApp, err := firebase.NewApp(ctx, fbCfg, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: firebase app init failed: %v", err)
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Printf("[shared.infra] WARN: firebase auth init failed: %v", err)
			} else {
				inf.FirebaseAuth = authClient
				log.Printf("[shared.infra] Firebase Auth initialized")
			}
		}
	}

	return inf, nil
}

// buildStripeClient resolves the mode-dependent secret pair and constructs
// the provider client. In production mode, secrets missing from env are
// read from Secret Manager before giving up.
func (inf *Infra) buildStripeClient(ctx context.Context) (*stripeadapter.Client, error) {
	mode, err := stripeadapter.ParseMode(inf.Config.StripeMode)
	if err != nil {
		return nil, err
	}

	var secretKey, webhookSecret string
	switch mode {
	case stripeadapter.ModeTest:
		secretKey = inf.Config.StripeTestSecretKey
		webhookSecret = inf.Config.StripeTestWebhookSecret
	case stripeadapter.ModeProduction:
		secretKey = inf.Config.StripeProdSecretKey
		webhookSecret = inf.Config.StripeProdWebhookSecret

		if strings.TrimSpace(secretKey) == "" {
			secretKey, err = inf.accessSecret(ctx, smStripeSecretKey)
			if err != nil {
				return nil, fmt.Errorf("resolve production secret key: %w", err)
			}
		}
		if strings.TrimSpace(webhookSecret) == "" {
			webhookSecret, err = inf.accessSecret(ctx, smStripeWebhookSecret)
			if err != nil {
				return nil, fmt.Errorf("resolve production webhook secret: %w", err)
			}
		}
	}

	return stripeadapter.NewClient(stripeadapter.Config{
		Mode:          mode,
		SecretKey:     secretKey,
		WebhookSecret: webhookSecret,
	})
}

func (inf *Infra) accessSecret(ctx context.Context, secretID string) (string, error) {
	if inf.SecretManager == nil {
		return "", errors.New("secret manager client is not available")
	}

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", inf.ProjectID, secretID)
	res, err := inf.SecretManager.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("access secret version %s: %w", name, err)
	}
	return strings.TrimSpace(string(res.Payload.Data)), nil
}

// Close releases owned clients. Safe on a partially built Infra.
func (inf *Infra) Close() {
	if inf == nil {
		return
	}
	if inf.DB != nil {
		_ = inf.DB.Close()
	}
	if inf.Firestore != nil {
		_ = inf.Firestore.Close()
	}
	if inf.SecretManager != nil {
		_ = inf.SecretManager.Close()
	}
}
