package brreg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultUnitsURL and DefaultSubUnitsURL are the registry detail API
	// endpoints, keyed by organization number.
	DefaultUnitsURL    = "https://data.brreg.no/enhetsregisteret/api/enheter"
	DefaultSubUnitsURL = "https://data.brreg.no/enhetsregisteret/api/underenheter"
)

// Detail is the contact subset of a registry detail record.
type Detail struct {
	Website string `json:"hjemmeside"`
	Email   string `json:"epostadresse"`
	Phone   string `json:"telefon"`
	Mobile  string `json:"mobil"`
}

// Client queries the registry detail API.
type Client struct {
	httpClient  *http.Client
	unitsURL    string
	subUnitsURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (tests, custom timeouts).
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithBaseURLs overrides the detail API endpoints.
func WithBaseURLs(units, subUnits string) ClientOption {
	return func(c *Client) {
		c.unitsURL = units
		c.subUnitsURL = subUnits
	}
}

// NewClient returns a detail API client with a 10 second timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		unitsURL:    DefaultUnitsURL,
		subUnitsURL: DefaultSubUnitsURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Unit fetches the primary-unit detail record. found is false for any
// non-200 response; err is non-nil only for transport or decode failures.
func (c *Client) Unit(ctx context.Context, orgNumber string) (Detail, bool, error) {
	return c.fetch(ctx, c.unitsURL, orgNumber)
}

// SubUnit fetches the sub-unit detail record.
func (c *Client) SubUnit(ctx context.Context, orgNumber string) (Detail, bool, error) {
	return c.fetch(ctx, c.subUnitsURL, orgNumber)
}

func (c *Client) fetch(ctx context.Context, baseURL, orgNumber string) (Detail, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/"+orgNumber, nil)
	if err != nil {
		return Detail{}, false, fmt.Errorf("building registry request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Detail{}, false, fmt.Errorf("registry lookup %s: %w", orgNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Detail{}, false, nil
	}

	var d Detail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Detail{}, false, fmt.Errorf("decoding registry response for %s: %w", orgNumber, err)
	}
	return d, true, nil
}
