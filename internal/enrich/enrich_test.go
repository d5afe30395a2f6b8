package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanhal/carpool-crm/internal/brreg"
	"github.com/johanhal/carpool-crm/internal/cache"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12345678", "+4712345678"},
		{"4712345678", "+4712345678"},
		{"12 34 56 78", "+4712345678"},
		{"", ""},
		{"+4712345678", "+4712345678"},
		{"0047123", "0047123"}, // neither shape; left alone
		{"478123456", "478123456"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPhone(tt.in), "FormatPhone(%q)", tt.in)
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.no", NormalizeURL("example.no"))
	assert.Equal(t, "https://example.no", NormalizeURL("  example.no "))
	assert.Equal(t, "http://example.no", NormalizeURL("http://example.no"))
	assert.Equal(t, "https://example.no", NormalizeURL("https://example.no"))
	assert.Equal(t, "", NormalizeURL(""))
}

func newTestEnricher(t *testing.T, handler http.HandlerFunc) (*Enricher, *int) {
	t.Helper()
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := brreg.NewClient(brreg.WithBaseURLs(srv.URL+"/enheter", srv.URL+"/underenheter"))
	store, err := cache.New[Record](filepath.Join(t.TempDir(), "company_cache.json"))
	require.NoError(t, err)

	return New(client, store, withSleep(func(time.Duration) {})), &calls
}

func TestEnrichPrimaryUnit(t *testing.T) {
	e, calls := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/enheter/111" {
			w.Write([]byte(`{"hjemmeside":"example.no","epostadresse":"post@example.no","telefon":"12 34 56 78"}`))
			return
		}
		http.NotFound(w, r)
	})

	got := e.Enrich(context.Background(), "111")
	assert.Equal(t, "https://example.no", got.Website)
	assert.Equal(t, "post@example.no", got.Email)
	assert.Equal(t, "+4712345678", got.Phone)
	// Primary unit had a website, so no sub-unit call.
	assert.Equal(t, 1, *calls)
}

func TestEnrichSubUnitFallbackFillsMissing(t *testing.T) {
	e, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/enheter/222":
			// No website, but a phone that must survive the fallback.
			w.Write([]byte(`{"telefon":"4712345678"}`))
		case "/underenheter/222":
			w.Write([]byte(`{"hjemmeside":"filial.no","telefon":"99999999","mobil":"88888888"}`))
		default:
			http.NotFound(w, r)
		}
	})

	got := e.Enrich(context.Background(), "222")
	assert.Equal(t, "https://filial.no", got.Website)
	assert.Equal(t, "+4712345678", got.Phone, "primary-unit phone must take precedence")
	assert.Equal(t, "+4788888888", got.Mobile, "missing mobile filled from sub-unit")
}

func TestEnrichFailureIsCached(t *testing.T) {
	e, calls := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	got := e.Enrich(context.Background(), "333")
	assert.Equal(t, Contact{}, got)
	firstCalls := *calls
	assert.Equal(t, 2, firstCalls, "both endpoints tried once")

	got = e.Enrich(context.Background(), "333")
	assert.Equal(t, Contact{}, got)
	assert.Equal(t, firstCalls, *calls, "failed lookup must not be retried")
	assert.True(t, e.Cached("333"))
}

func TestEnrichCacheHitSkipsNetwork(t *testing.T) {
	e, calls := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hjemmeside":"example.no"}`))
	})

	first := e.Enrich(context.Background(), "444")
	second := e.Enrich(context.Background(), "444")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls)
}

func TestProffURL(t *testing.T) {
	assert.Equal(t, "https://www.proff.no/bransjesøk?q=987654321", ProffURL("987654321"))
	assert.Equal(t, "", ProffURL(""))
}
