// internal/adapters/out/stripe/client_test.go
package stripe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("test")
	require.NoError(t, err)
	assert.Equal(t, ModeTest, m)

	m, err = ParseMode(" PRODUCTION ")
	require.NoError(t, err)
	assert.Equal(t, ModeProduction, m)

	_, err = ParseMode("staging")
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = ParseMode("")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestNewClient_FailsFastOnMissingSecrets(t *testing.T) {
	_, err := NewClient(Config{Mode: ModeTest, WebhookSecret: "whsec_x"})
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewClient(Config{Mode: ModeTest, SecretKey: "sk_test_x"})
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewClient(Config{SecretKey: "sk_x", WebhookSecret: "whsec_x"})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestNewClient_OK(t *testing.T) {
	c, err := NewClient(Config{
		Mode:          ModeTest,
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_123",
	})
	require.NoError(t, err)
	assert.Equal(t, ModeTest, c.Mode())
}

func TestConstructWebhookEvent_BadSignature(t *testing.T) {
	c, err := NewClient(Config{
		Mode:          ModeTest,
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_123",
	})
	require.NoError(t, err)

	_, err = c.ConstructWebhookEvent([]byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
