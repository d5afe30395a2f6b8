// Package geocode resolves free-text Norwegian street addresses to
// coordinates through the Kartverket address-search API, with every
// result — including "not found" — memoized in a persistent cache so
// re-runs never repeat a lookup.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johanhal/carpool-crm/internal/cache"
)

// DefaultBaseURL is the Kartverket address-search endpoint.
const DefaultBaseURL = "https://ws.geonorge.no/adresser/v1/sok"

// DefaultDelay is the pause inserted after every live API call. Cached
// lookups incur no delay.
const DefaultDelay = 500 * time.Millisecond

// Result is one cache entry: a coordinate, or null coordinates for a
// recorded negative result.
type Result struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Timestamp string   `json:"timestamp"`
}

// Geocoder is a cache-backed client for the address-search API.
type Geocoder struct {
	cache      *cache.Store[Result]
	httpClient *http.Client
	baseURL    string
	delay      time.Duration
	sleep      func(time.Duration)
	now        func() time.Time
	log        *zap.Logger
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithBaseURL overrides the address-search endpoint.
func WithBaseURL(u string) Option {
	return func(g *Geocoder) { g.baseURL = u }
}

// WithDelay overrides the inter-request delay applied after live calls.
func WithDelay(d time.Duration) Option {
	return func(g *Geocoder) { g.delay = d }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(g *Geocoder) { g.httpClient = h }
}

// WithLogger sets the logger for per-address failures.
func WithLogger(l *zap.Logger) Option {
	return func(g *Geocoder) { g.log = l }
}

// withSleep replaces the throttle sleep; tests use it to observe delays.
func withSleep(fn func(time.Duration)) Option {
	return func(g *Geocoder) { g.sleep = fn }
}

// New returns a Geocoder backed by the given cache store.
func New(store *cache.Store[Result], opts ...Option) *Geocoder {
	g := &Geocoder{
		cache:      store,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		delay:      DefaultDelay,
		sleep:      time.Sleep,
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CacheKey builds the canonical cache key for an address lookup:
// case-insensitive, whitespace-trimmed "address|postal|city".
func CacheKey(address, postalCode, city string) string {
	return strings.TrimSpace(strings.ToLower(address + "|" + postalCode + "|" + city))
}

// Cached reports whether a lookup (positive or negative) is already
// recorded, without touching the network.
func (g *Geocoder) Cached(address, postalCode, city string) bool {
	return g.cache.Has(CacheKey(address, postalCode, city))
}

type searchResponse struct {
	Addresses []struct {
		Point struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"representasjonspunkt"`
	} `json:"adresser"`
}

// Geocode resolves an address to a coordinate. A cache hit — positive or
// negative — short-circuits the network call entirely. On a miss, one
// lookup is issued (optionally narrowed by a municipality code hint) and
// its outcome is cached; any failure is logged, cached as a negative
// result and reported as ok=false, never as an error.
func (g *Geocoder) Geocode(ctx context.Context, address, postalCode, city, municipalityHint string) (lat, lon float64, ok bool) {
	key := CacheKey(address, postalCode, city)
	if r, hit := g.cache.Get(key); hit {
		if r.Lat == nil || r.Lon == nil {
			return 0, 0, false
		}
		return *r.Lat, *r.Lon, true
	}

	lat, lon, ok = g.lookup(ctx, address, postalCode, city, municipalityHint)

	r := Result{Timestamp: g.now().Format("2006-01-02")}
	if ok {
		r.Lat, r.Lon = &lat, &lon
	}
	g.cache.Put(key, r)

	// Throttle only live lookups.
	g.sleep(g.delay)
	return lat, lon, ok
}

func (g *Geocoder) lookup(ctx context.Context, address, postalCode, city, municipalityHint string) (float64, float64, bool) {
	query := fmt.Sprintf("%s, %s %s", address, postalCode, city)

	params := url.Values{}
	params.Set("sok", query)
	params.Set("treffPerSide", "1")
	if municipalityHint != "" {
		params.Set("kommunenummer", municipalityHint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		g.log.Warn("building geocode request failed", zap.String("query", query), zap.Error(err))
		return 0, 0, false
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.log.Warn("geocode lookup failed", zap.String("query", query), zap.Error(err))
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.log.Warn("geocode lookup failed", zap.String("query", query), zap.Int("status", resp.StatusCode))
		return 0, 0, false
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		g.log.Warn("decoding geocode response failed", zap.String("query", query), zap.Error(err))
		return 0, 0, false
	}
	if len(sr.Addresses) == 0 {
		return 0, 0, false
	}

	p := sr.Addresses[0].Point
	return p.Lat, p.Lon, true
}
