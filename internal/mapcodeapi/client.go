// Package mapcodeapi provides an HTTP client for the Mapcode REST API.
package mapcodeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// BaseURL is the public Mapcode REST API base URL.
	BaseURL = "https://api.mapcode.com"

	// DefaultClientID is sent as the client parameter.
	DefaultClientID = "cli"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 10 * time.Second

	// DefaultRetries for failed requests.
	DefaultRetries = 2

	// BaseBackoff for exponential backoff.
	BaseBackoff = 500 * time.Millisecond

	// MaxBackoff for exponential backoff.
	MaxBackoff = 10 * time.Second

	userAgent = "mapcode-cli/1.0"
)

var (
	// ErrNotFound is returned when the API reports the mapcode or location
	// does not exist.
	ErrNotFound = errors.New("not found")
)

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL  string
	ClientID string
	AllowLog bool
	Timeout  time.Duration
	Retries  int
}

// Client is an HTTP client for the Mapcode API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	allowLog   bool
	retries    int
}

// NewClient creates a new Mapcode API client.
func NewClient(opts Options) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		clientID:   opts.ClientID,
		allowLog:   opts.AllowLog,
		retries:    opts.Retries,
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = DefaultTimeout
	}
	if c.baseURL == "" {
		c.baseURL = BaseURL
	}
	if c.clientID == "" {
		c.clientID = DefaultClientID
	}
	if c.retries < 0 {
		c.retries = 0
	}
	return c
}

// BaseURL returns the host the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ErrorResponse is the error body returned by the API.
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

// APIError is one entry of an error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e ErrorResponse) String() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, er := range e.Errors {
		msgs = append(msgs, er.Message)
	}
	return strings.Join(msgs, "; ")
}

// get performs a GET request for path (already escaped) and decodes the
// JSON body into out, retrying transport failures and 5xx responses.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	params := url.Values{}
	params.Set("client", c.clientID)
	params.Set("allowLog", strconv.FormatBool(c.allowLog))

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doRequest(ctx, fullURL)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsUnreachable(err) {
			return err
		}
	}

	return fmt.Errorf("after %d retries: %w", c.retries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var er ErrorResponse
		if json.Unmarshal(body, &er) == nil && len(er.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, er)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		var er ErrorResponse
		_ = json.Unmarshal(body, &er)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, er)
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

// IsUnreachable reports whether err means the API could not be used at all,
// as opposed to the API answering that something does not exist or is
// malformed.
func IsUnreachable(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := BaseBackoff * time.Duration(1<<uint(attempt-1))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	// Add jitter (0-25% of backoff)
	jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
	return backoff + jitter
}
