package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	session "github.com/merxus/go-session"
)

// Client is the entry point for all tenant API calls.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  session.TokenSource
	logger  session.Logger
}

// New builds a Client rooted at the versioned API namespace.
func New(baseURL string, tokens session.TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  session.NewDefaultLogger(),
	}
}

func (c *Client) WithLogger(logger session.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithHTTPClient overrides the underlying HTTP client (useful for tests).
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.http = httpClient
	}
	return c
}

// Estate returns the real-estate vertical surface.
func (c *Client) Estate() *EstateService {
	return &EstateService{client: c}
}

// Voice returns the voice-office vertical surface.
func (c *Client) Voice() *VoiceService {
	return &VoiceService{client: c}
}

// Restaurant returns the restaurant vertical surface.
func (c *Client) Restaurant() *RestaurantService {
	return &RestaurantService{client: c}
}

// Merxus returns the cross-tenant admin surface.
func (c *Client) Merxus() *MerxusService {
	return &MerxusService{client: c}
}

// Uploads returns the object storage surface.
func (c *Client) Uploads() *UploadService {
	return &UploadService{client: c}
}

// do performs one API call. Errors are transient by contract: the caller
// surfaces them to the user and resubmits, nothing here retries.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.IDToken(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "no session token for API call").
			WithCode(goerrors.CodeUnauthorized)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("API returned status %d", resp.StatusCode)
		}
		return goerrors.New(msg, goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"path":   path,
			})
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode API response")
	}
	return nil
}
