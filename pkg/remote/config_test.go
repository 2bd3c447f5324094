package remote

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_JSONUsesMilliseconds(t *testing.T) {
	cfg := Config{Enabled: true, Endpoint: "https://api.example.com/v1/check", APIKey: "k", Timeout: 2500 * time.Millisecond}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"endpoint":"https://api.example.com/v1/check","apiKey":"k","timeout":2500}`, string(data))

	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}

func TestConfig_UnmarshalDefaultsTimeout(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"enabled":false,"endpoint":""}`), &cfg))
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestConfig_Apply(t *testing.T) {
	on := true
	endpoint := "  https://api.example.com  "
	timeout := int64(750)

	cfg := DefaultConfig().Apply(ConfigPatch{Enabled: &on, Endpoint: &endpoint, Timeout: &timeout})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://api.example.com", cfg.Endpoint)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.Empty(t, cfg.APIKey, "untouched fields keep their value")
	assert.True(t, cfg.Active())
}

func TestConfig_ActiveAndValidate(t *testing.T) {
	assert.False(t, Config{Enabled: true}.Active())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Endpoint: "ftp://x"}.Validate())
	assert.Error(t, Config{Endpoint: "not a url"}.Validate())
	assert.NoError(t, Config{Enabled: true, Endpoint: "http://localhost:8000/predict/"}.Validate())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := Config{APIKey: "secret"}
	assert.Equal(t, "********", cfg.Redacted().APIKey)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Empty(t, Config{}.Redacted().APIKey)
}

func TestConfig_EffectiveTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, Config{}.EffectiveTimeout())
	assert.Equal(t, time.Second, Config{Timeout: time.Second}.EffectiveTimeout())
}
