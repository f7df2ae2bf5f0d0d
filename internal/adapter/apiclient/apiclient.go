// Package apiclient talks to the Emaily HTTP API on behalf of a client store.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"emaily/internal/client"
)

var (
	// ErrUnauthorized is returned when the server requires a login.
	ErrUnauthorized = errors.New("not signed in")
	// ErrMalformedPayload is returned when a response is not a user record.
	ErrMalformedPayload = errors.New("malformed user payload")
)

const maxBody = 1 << 20

// Client implements client.RemoteService over HTTP. Cookies set by the
// server are kept in a jar, so a session survives across calls.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ client.RemoteService = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithSessionCookie seeds the jar with an existing session cookie, e.g. one
// copied from a browser.
func WithSessionCookie(value string) Option {
	return func(c *Client) error {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil
		}
		c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: "session", Value: value, Path: "/"}})
		return nil
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.http.Timeout = d
		return nil
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CurrentUser fetches /api/current_user. The server answers false (or an
// empty body) for anonymous callers, which maps to a nil record.
func (c *Client) CurrentUser(ctx context.Context) (*client.UserRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/current_user", nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(body)
}

// SubmitPaymentToken posts the token to /api/stripe and returns the user with
// the updated balance.
func (c *Client) SubmitPaymentToken(ctx context.Context, token string) (*client.UserRecord, error) {
	payload, err := json.Marshal(map[string]string{"id": token})
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost, "/api/stripe", payload)
	if err != nil {
		return nil, err
	}
	u, err := decodeUser(body)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: no user after purchase", ErrMalformedPayload)
	}
	return u, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	endpoint := c.base.JoinPath(path).String()

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, serverError(body))
	}
	return body, nil
}

func decodeUser(body []byte) (*client.UserRecord, error) {
	trimmed := bytes.TrimSpace(body)
	switch string(trimmed) {
	case "", "false", "null":
		return nil, nil
	}

	var u client.UserRecord
	if err := json.Unmarshal(trimmed, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &u, nil
}

func serverError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
