package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:           "development",
		Port:          "8080",
		JWTSecret:     "secure-secret-at-least-32-chars-long",
		DBPassword:    "secure-password",
		DBSSLMode:     "require",
		NotifyMode:    NotifyModeQueue,
		MailTransport: MailTransportLog,
		SMTPHost:      "smtp.example.com",
		SMTPPort:      587,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Development defaults", func(*Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Sync notify mode", func(c *Config) { c.NotifyMode = NotifyModeSync }, false},
		{"Unknown notify mode", func(c *Config) { c.NotifyMode = "carrier-pigeon" }, true},
		{"Unknown mail transport", func(c *Config) { c.MailTransport = "fax" }, true},
		{"SMTP without host", func(c *Config) { c.MailTransport = MailTransportSMTP; c.SMTPHost = "" }, true},
		{"SMTP with host", func(c *Config) { c.MailTransport = MailTransportSMTP }, false},
		{"Production with log mailer", func(c *Config) { c.Env = "production" }, true},
		{"Production with SES", func(c *Config) { c.Env = "production"; c.MailTransport = MailTransportSES }, false},
		{"Production with default secret", func(c *Config) {
			c.Env = "production"
			c.MailTransport = MailTransportSES
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production with short secret", func(c *Config) {
			c.Env = "prod"
			c.MailTransport = MailTransportSES
			c.JWTSecret = "short"
		}, true},
		{"Production with default DB password", func(c *Config) {
			c.Env = "production"
			c.MailTransport = MailTransportSES
			c.DBPassword = "password"
		}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("NOTIFY_MODE", "sync")
	t.Setenv("SMTP_USERNAME", "mailer")
	t.Setenv("ROOT_ADMIN_USERNAME", "root")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, NotifyModeSync, c.NotifyMode)
	assert.Equal(t, MailTransportLog, c.MailTransport)
	assert.Equal(t, "mailer", c.SMTPUsername)
	assert.Equal(t, "root", c.RootAdminUsername)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.True(t, c.RequireEmailConfirmation)
}
