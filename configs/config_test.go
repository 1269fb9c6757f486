package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("ARTBAY_STRIPE__SECRET_KEY", "sk_test")
	t.Setenv("ARTBAY_STRIPE__WEBHOOK_SECRET", "whsec_test")

	cfg, err := Load(".", "dev")
	require.NoError(t, err)

	// server timeouts come from base.yaml and feed the http.Server in main
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 20*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTP.IdleTimeout)

	// env overlay wins over yaml
	assert.Equal(t, "sk_test", cfg.Stripe.SecretKey)
	assert.Equal(t, "whsec_test", cfg.Stripe.WebhookSecret)

	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, 8*time.Second, cfg.Stripe.SessionTimeout)
}

func TestValidate(t *testing.T) {
	var cfg Config
	assert.ErrorContains(t, cfg.Validate(), "app.http_addr")

	cfg.App.HTTPAddr = ":8080"
	assert.ErrorContains(t, cfg.Validate(), "mysql.dsn")
}
