package httpident

import (
	"net/http"
	"time"
)

// Config holds the identity service endpoint settings.
type Config struct {
	// BaseURL is the identity service root, e.g. https://identity.example.com
	BaseURL string
	// APIKey is sent as a query parameter on every call.
	APIKey string
	// HTTPClient overrides the default client (useful for tests).
	HTTPClient *http.Client
	// Timeout bounds each provider call. Defaults to 15s.
	Timeout time.Duration
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &http.Client{Timeout: timeout}
}
