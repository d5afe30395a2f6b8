package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/johanhal/carpool-crm/internal/cache"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) (*Geocoder, *int, *int) {
	t.Helper()
	calls := 0
	sleeps := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store, err := cache.New[Result](filepath.Join(t.TempDir(), "geocode_cache.json"))
	if err != nil {
		t.Fatal(err)
	}

	g := New(store,
		WithBaseURL(srv.URL),
		withSleep(func(time.Duration) { sleeps++ }),
	)
	return g, &calls, &sleeps
}

func found(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte(`{"adresser":[{"representasjonspunkt":{"lat":59.956,"lon":11.049}}]}`))
}

func TestCacheHitSkipsNetworkAndDelay(t *testing.T) {
	g, calls, sleeps := newTestGeocoder(t, found)
	ctx := context.Background()

	lat, lon, ok := g.Geocode(ctx, "Storgata 1", "2000", "Lillestrøm", "")
	if !ok || lat != 59.956 || lon != 11.049 {
		t.Fatalf("first lookup: (%v, %v, %v)", lat, lon, ok)
	}
	if *calls != 1 || *sleeps != 1 {
		t.Fatalf("after miss: calls=%d sleeps=%d", *calls, *sleeps)
	}

	lat, lon, ok = g.Geocode(ctx, "  STORGATA 1", "2000", "LILLESTRØM  ", "")
	if !ok || lat != 59.956 || lon != 11.049 {
		t.Fatalf("cached lookup: (%v, %v, %v)", lat, lon, ok)
	}
	if *calls != 1 {
		t.Errorf("cache hit performed a network call (calls=%d)", *calls)
	}
	if *sleeps != 1 {
		t.Errorf("cache hit slept (sleeps=%d)", *sleeps)
	}
}

func TestNegativeResultIsCached(t *testing.T) {
	g, calls, _ := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"adresser":[]}`))
	})
	ctx := context.Background()

	if _, _, ok := g.Geocode(ctx, "Finnes Ikke 99", "0000", "Ingensteds", ""); ok {
		t.Fatal("expected not found")
	}
	if _, _, ok := g.Geocode(ctx, "Finnes Ikke 99", "0000", "Ingensteds", ""); ok {
		t.Fatal("expected cached not found")
	}
	if *calls != 1 {
		t.Errorf("negative result not cached: calls=%d", *calls)
	}
}

func TestServerErrorBecomesCachedNegative(t *testing.T) {
	g, calls, _ := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	ctx := context.Background()

	if _, _, ok := g.Geocode(ctx, "Storgata 1", "2000", "Lillestrøm", ""); ok {
		t.Fatal("server error should yield not found")
	}
	g.Geocode(ctx, "Storgata 1", "2000", "Lillestrøm", "")
	if *calls != 1 {
		t.Errorf("failed lookup retried: calls=%d", *calls)
	}
}

func TestMunicipalityHintForwarded(t *testing.T) {
	var gotHint string
	g, _, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		gotHint = r.URL.Query().Get("kommunenummer")
		found(w, r)
	})

	g.Geocode(context.Background(), "Storgata 1", "2000", "Lillestrøm", "3030")
	if gotHint != "3030" {
		t.Errorf("municipality hint not forwarded, got %q", gotHint)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	a := CacheKey("Storgata 1", "2000", "Lillestrøm")
	b := CacheKey("  storgata 1", "2000", "LILLESTRØM  ")
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	if a != "storgata 1|2000|lillestrøm" {
		t.Errorf("unexpected key format: %q", a)
	}
}

func TestCachedReflectsStore(t *testing.T) {
	g, _, _ := newTestGeocoder(t, found)
	if g.Cached("Storgata 1", "2000", "Lillestrøm") {
		t.Fatal("nothing should be cached yet")
	}
	g.Geocode(context.Background(), "Storgata 1", "2000", "Lillestrøm", "")
	if !g.Cached("Storgata 1", "2000", "Lillestrøm") {
		t.Fatal("lookup should be cached")
	}
}
