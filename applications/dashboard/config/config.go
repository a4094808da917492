package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// APIKeyEnv overrides filelu.api_key so the key can stay out of the config file.
const APIKeyEnv = "FILELU_API_KEY"

const (
	DefaultBaseURL           = "https://filelu.com/api"
	DefaultTimeout           = 10 * time.Second
	DefaultUploadType        = "prem"
	DefaultUploadConcurrency = 4
	DefaultMaxResponseBytes  = 8 << 20 // 8 MiB
	DefaultHTTPAddr          = "0.0.0.0:8002"
	DefaultMaxUploadBytes    = 100 << 20 // 100 MiB
)

type Dashboard struct {
	API    Api    `yaml:"api"`
	FileLu FileLu `yaml:"filelu"`
}

type Api struct {
	HTTPAddr       string `yaml:"http_addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type FileLu struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	UploadType        string        `yaml:"upload_type"`
	UploadConcurrency int           `yaml:"upload_concurrency"`
	MaxResponseBytes  int64         `yaml:"max_response_bytes"`

	// InMemory serves every FileLu call from process memory. No account is needed.
	InMemory bool `yaml:"inmemory"`
}

// Parse reads the YAML config at path, fills defaults for omitted fields and
// applies the API key environment override. An empty path yields defaults.
func Parse(path string) (Dashboard, error) {
	var cfg Dashboard

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Dashboard{}, fmt.Errorf("can't read config file: %w", err)
		}

		if err = yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Dashboard{}, fmt.Errorf("can't unmarshal config: %w", err)
		}
	}

	cfg.setDefaults()

	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.FileLu.APIKey = key
	}

	return cfg, nil
}

func (c *Dashboard) setDefaults() {
	if c.API.HTTPAddr == "" {
		c.API.HTTPAddr = DefaultHTTPAddr
	}
	if c.API.MaxUploadBytes == 0 {
		c.API.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.FileLu.BaseURL == "" {
		c.FileLu.BaseURL = DefaultBaseURL
	}
	if c.FileLu.Timeout == 0 {
		c.FileLu.Timeout = DefaultTimeout
	}
	if c.FileLu.UploadType == "" {
		c.FileLu.UploadType = DefaultUploadType
	}
	if c.FileLu.UploadConcurrency == 0 {
		c.FileLu.UploadConcurrency = DefaultUploadConcurrency
	}
	if c.FileLu.MaxResponseBytes == 0 {
		c.FileLu.MaxResponseBytes = DefaultMaxResponseBytes
	}
}

func (c Dashboard) Validate() error {
	if c.API.HTTPAddr == "" {
		return errors.New("api.http_addr is required")
	}
	if c.API.MaxUploadBytes < 0 {
		return errors.New("api.max_upload_bytes must not be negative")
	}

	if !c.FileLu.InMemory {
		u, err := url.Parse(c.FileLu.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("filelu.base_url must be an absolute URL, got %q", c.FileLu.BaseURL)
		}
		if c.FileLu.APIKey == "" {
			return fmt.Errorf("filelu.api_key is required (or set %s)", APIKeyEnv)
		}
	}
	if c.FileLu.Timeout < 0 {
		return errors.New("filelu.timeout must not be negative")
	}
	if c.FileLu.UploadConcurrency < 1 {
		return errors.New("filelu.upload_concurrency must be at least 1")
	}

	return nil
}
