// Package postcodes provides a client for the postcodes.io place lookup
// API, used to resolve a UK region name to coordinates.
package postcodes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no place matches the query.
var ErrNotFound = eris.New("postcodes: no matching place")

// Client defines the postcodes.io operations.
type Client interface {
	// ResolvePlace looks up a UK place name and returns its coordinates.
	ResolvePlace(ctx context.Context, query string) (*Place, error)
}

// Place is a resolved UK place.
type Place struct {
	Name      string  `json:"name_1"`
	County    string  `json:"county_unitary"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type placesResponse struct {
	Status int     `json:"status"`
	Result []Place `json:"result"`
}

// Option configures the postcodes client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new postcodes.io client. The API is unauthenticated.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.postcodes.io",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ResolvePlace(ctx context.Context, query string) (*Place, error) {
	if query == "" {
		return nil, eris.New("postcodes: query is required")
	}

	reqURL := c.baseURL + "/places?q=" + url.QueryEscape(query) + "&limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "postcodes: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "postcodes: place lookup")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "postcodes: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("postcodes: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed placesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "postcodes: parse response")
	}
	if len(parsed.Result) == 0 {
		return nil, ErrNotFound
	}

	place := parsed.Result[0]
	return &place, nil
}
