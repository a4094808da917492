package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	want := Dashboard{
		API: Api{HTTPAddr: "0.0.0.0:8002", MaxUploadBytes: DefaultMaxUploadBytes},
		FileLu: FileLu{
			BaseURL:           "https://filelu.com/api",
			APIKey:            "test-key",
			Timeout:           10 * time.Second,
			UploadType:        "prem",
			UploadConcurrency: 4,
			MaxResponseBytes:  DefaultMaxResponseBytes,
		},
	}

	got, err := Parse("config.yml")

	assert.NoError(t, got.Validate())
	assert.Equal(t, nil, err)
	assert.Equal(t, want, got)
}

func TestParseConfig_EnvOverridesKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")

	got, err := Parse("config.yml")
	require.NoError(t, err)

	assert.Equal(t, "from-env", got.FileLu.APIKey)
}

func TestParseConfig_Defaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	got, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, got.FileLu.BaseURL)
	assert.Equal(t, DefaultTimeout, got.FileLu.Timeout)
	assert.Equal(t, DefaultUploadType, got.FileLu.UploadType)
	assert.Equal(t, DefaultHTTPAddr, got.API.HTTPAddr)
	assert.Error(t, got.Validate(), "missing api key must fail validation")
}

func TestParseConfig_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("filelu:\n  apikey: x\n"), 0o600))

	_, err := Parse(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Dashboard {
		c := Dashboard{FileLu: FileLu{APIKey: "k"}}
		c.setDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Dashboard)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Dashboard) {}},
		{name: "relative base url", mutate: func(c *Dashboard) { c.FileLu.BaseURL = "/api" }, wantErr: true},
		{name: "no key", mutate: func(c *Dashboard) { c.FileLu.APIKey = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Dashboard) { c.FileLu.Timeout = -time.Second }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Dashboard) { c.FileLu.UploadConcurrency = -1 }, wantErr: true},
		{name: "no http addr", mutate: func(c *Dashboard) { c.API.HTTPAddr = "" }, wantErr: true},
		{name: "in memory without key", mutate: func(c *Dashboard) {
			c.FileLu.InMemory = true
			c.FileLu.APIKey = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}
