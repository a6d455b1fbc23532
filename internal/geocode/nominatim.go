// Package geocode converts between addresses and coordinates using the
// Nominatim (OpenStreetMap) API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hightemp/mapcode/internal/geo"
)

// API Docs: https://nominatim.org/release-docs/develop/api/Overview/
const (
	// BaseURL is the public Nominatim instance.
	BaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the client; Nominatim rejects requests
	// without one.
	DefaultUserAgent = "mapcode-cli/1.0"

	// DefaultMinInterval is the usage policy limit of one request per second.
	DefaultMinInterval = time.Second

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 10 * time.Second
)

// ErrNoResults is returned when Nominatim finds nothing.
var ErrNoResults = errors.New("no geocoding results")

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL     string
	UserAgent   string
	Language    string
	MinInterval time.Duration
	Timeout     time.Duration
}

// Client is a rate-limited Nominatim client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	language    string
	minInterval time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a Nominatim client. A negative MinInterval disables
// throttling.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		userAgent:   opts.UserAgent,
		language:    opts.Language,
		minInterval: opts.MinInterval,
		logger:      logger.With("component", "nominatim-client"),
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = DefaultTimeout
	}
	if c.baseURL == "" {
		c.baseURL = BaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.minInterval == 0 {
		c.minInterval = DefaultMinInterval
	}
	return c
}

type reverseResponse struct {
	Error   string `json:"error"`
	Address struct {
		Road        string `json:"road"`
		Pedestrian  string `json:"pedestrian"`
		HouseNumber string `json:"house_number"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Hamlet      string `json:"hamlet"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Reverse returns the address nearest to c.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (*Address, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))

	var resp reverseResponse
	if err := c.get(ctx, "/reverse", params, &resp); err != nil {
		return nil, fmt.Errorf("reverse geocode %s: %w", coord, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("reverse geocode %s: %w: %s", coord, ErrNoResults, resp.Error)
	}

	a := resp.Address
	addr := &Address{
		Street:      firstNonEmpty(a.Road, a.Pedestrian),
		HouseNumber: a.HouseNumber,
		Locality:    firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet),
		CountryCode: strings.ToUpper(a.CountryCode),
	}
	if addr.IsZero() {
		return nil, fmt.Errorf("reverse geocode %s: %w", coord, ErrNoResults)
	}
	return addr, nil
}

// Search returns the location of the best match for query.
func (c *Client) Search(ctx context.Context, query string) (geo.Coordinate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return geo.Coordinate{}, fmt.Errorf("search: %w: empty query", ErrNoResults)
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("q", query)

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return geo.Coordinate{}, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return geo.Coordinate{}, fmt.Errorf("search %q: %w", query, ErrNoResults)
	}

	coord, err := geo.ParseLatLon(results[0].Lat, results[0].Lon)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("search %q: %w", query, err)
	}
	c.logger.Debug("address found", "query", query, "display_name", results[0].DisplayName)
	return coord, nil
}

// wait blocks until the next request is allowed by the rate limit.
func (c *Client) wait(ctx context.Context) error {
	if c.minInterval < 0 {
		return nil
	}

	c.mu.Lock()
	delay := time.Duration(0)
	now := time.Now()
	if !c.lastCall.IsZero() {
		if elapsed := now.Sub(c.lastCall); elapsed < c.minInterval {
			delay = c.minInterval - elapsed
		}
	}
	c.lastCall = now.Add(delay)
	c.mu.Unlock()

	if delay == 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	c.logger.Debug("calling nominatim", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nominatim returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
