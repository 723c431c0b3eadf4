package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		Port:                     "8080",
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"default jwt secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }},
		{"default db password", func(c *Config) { c.DBPassword = "password" }},
		{"dev root enabled", func(c *Config) { c.DevBootstrapRoot = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = "production"
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_ValidateEnums(t *testing.T) {
	c := validConfig()
	c.DBSchemaMode = "yolo"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.TracingExporter = "jaeger"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.RedisURL = ""
	assert.Error(t, c.Validate())
}

func TestConfig_Configured(t *testing.T) {
	c := validConfig()
	assert.False(t, c.SMTPConfigured())
	assert.False(t, c.S3Configured())

	c.SMTPHost = "smtp.example.com"
	c.SMTPFrom = "no-reply@example.com"
	c.S3Bucket = "pets"
	c.S3AccessKeyID = "key"
	c.S3SecretAccessKey = "secret"
	assert.True(t, c.SMTPConfigured())
	assert.True(t, c.S3Configured())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_SCHEMA_MODE", " SQL ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sql", c.DBSchemaMode)
	assert.Equal(t, "gemini-2.5-flash", c.GeminiModel)
	assert.Equal(t, 25, c.DBMaxOpenConns)
}
