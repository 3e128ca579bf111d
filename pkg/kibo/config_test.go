package kibo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		APIRoot:       "https://t12345.sandbox.mozu.com/api",
		ClientID:      "acme.sync.1.0.0.release",
		ClientSecret:  "0123456789abcdef0123456789abcdef",
		MasterCatalog: 1,
	}
}

func TestConfigValidate(t *testing.T) {
	assert.Empty(t, validConfig().Validate())

	cfg := validConfig()
	cfg.APIRoot = "https://t12345.sandbox.mozu.com"
	assert.NotEmpty(t, cfg.Validate())

	cfg = validConfig()
	cfg.ClientSecret = "not-a-secret"
	assert.NotEmpty(t, cfg.Validate())

	cfg = validConfig()
	cfg.MasterCatalog = 0
	assert.NotEmpty(t, cfg.Validate())

	assert.NotEmpty(t, NewDefaultConfig().Validate())
}

func TestConfigTenantID(t *testing.T) {
	tenantID, err := validConfig().TenantID()
	require.NoError(t, err)
	assert.Equal(t, "12345", tenantID)

	cfg := validConfig()
	cfg.APIRoot = "https://example.com/api"
	_, err = cfg.TenantID()
	assert.Error(t, err)
}
