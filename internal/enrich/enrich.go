// Package enrich adds contact information (website, email, phone) to
// company records from the registry detail API, with normalization and
// persistent caching of both successful and failed lookups.
package enrich

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johanhal/carpool-crm/internal/brreg"
	"github.com/johanhal/carpool-crm/internal/cache"
	"github.com/johanhal/carpool-crm/internal/company"
)

// DefaultDelay is the pause after each live registry lookup.
const DefaultDelay = 500 * time.Millisecond

// cacheKeyPrefix namespaces registry lookups in the shared company cache
// file.
const cacheKeyPrefix = "brreg_"

// Record is the cached outcome of an enrichment lookup. Nil fields mean
// the registry had no value; a record of four nils is a cached failure.
type Record struct {
	Website *string `json:"hjemmeside"`
	Email   *string `json:"epostadresse"`
	Phone   *string `json:"telefon"`
	Mobile  *string `json:"mobil"`
}

// Contact is the normalized enrichment result.
type Contact struct {
	Website string
	Email   string
	Phone   string
	Mobile  string
}

// Enricher fetches and caches contact details per organization number.
type Enricher struct {
	client *brreg.Client
	cache  *cache.Store[Record]
	delay  time.Duration
	sleep  func(time.Duration)
	log    *zap.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithDelay overrides the inter-request delay applied after live calls.
func WithDelay(d time.Duration) Option {
	return func(e *Enricher) { e.delay = d }
}

// WithLogger sets the logger for per-record failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enricher) { e.log = l }
}

// withSleep replaces the throttle sleep; tests use it to observe delays.
func withSleep(fn func(time.Duration)) Option {
	return func(e *Enricher) { e.sleep = fn }
}

// New returns an Enricher backed by the given registry client and cache.
func New(client *brreg.Client, store *cache.Store[Record], opts ...Option) *Enricher {
	e := &Enricher{
		client: client,
		cache:  store,
		delay:  DefaultDelay,
		sleep:  time.Sleep,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cached reports whether the org number already has a cached record.
func (e *Enricher) Cached(orgNumber string) bool {
	return e.cache.Has(cacheKeyPrefix + orgNumber)
}

// Enrich returns normalized contact fields for the organization. The
// primary-unit record is consulted first; when it lacks a website, the
// sub-unit record fills in any still-missing fields. Lookups never fail
// the pipeline: network errors and 404s yield an empty (and cached)
// contact.
func (e *Enricher) Enrich(ctx context.Context, orgNumber string) Contact {
	key := cacheKeyPrefix + orgNumber
	if rec, hit := e.cache.Get(key); hit {
		return normalize(rec)
	}

	rec := e.fetch(ctx, orgNumber)
	e.cache.Put(key, rec)
	e.sleep(e.delay)
	return normalize(rec)
}

func (e *Enricher) fetch(ctx context.Context, orgNumber string) Record {
	var rec Record

	if d, found, err := e.client.Unit(ctx, orgNumber); err != nil {
		e.log.Warn("primary-unit lookup failed", zap.String("orgnr", orgNumber), zap.Error(err))
	} else if found {
		rec.Website = opt(d.Website)
		rec.Email = opt(d.Email)
		rec.Phone = opt(d.Phone)
		rec.Mobile = opt(d.Mobile)
	}

	// Sub-unit fallback only when the primary unit has no website;
	// primary-unit values always win where both are present.
	if rec.Website == nil {
		if d, found, err := e.client.SubUnit(ctx, orgNumber); err != nil {
			e.log.Warn("sub-unit lookup failed", zap.String("orgnr", orgNumber), zap.Error(err))
		} else if found {
			rec.Website = opt(d.Website)
			if rec.Email == nil {
				rec.Email = opt(d.Email)
			}
			if rec.Phone == nil {
				rec.Phone = opt(d.Phone)
			}
			if rec.Mobile == nil {
				rec.Mobile = opt(d.Mobile)
			}
		}
	}
	return rec
}

func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func normalize(rec Record) Contact {
	return Contact{
		Website: NormalizeURL(deref(rec.Website)),
		Email:   deref(rec.Email),
		Phone:   FormatPhone(deref(rec.Phone)),
		Mobile:  FormatPhone(deref(rec.Mobile)),
	}
}

// Apply copies the contact fields and the registry search link onto a
// company record, returning the annotated copy.
func Apply(c company.Company, contact Contact) company.Company {
	c.Website = contact.Website
	c.Email = contact.Email
	c.Phone = contact.Phone
	c.Mobile = contact.Mobile
	c.ProffURL = ProffURL(c.OrgNumber)
	return c
}

// NormalizeURL prefixes bare hostnames with https://.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

var phoneSpaceRe = regexp.MustCompile(`\s+`)

// FormatPhone strips internal whitespace and applies the Norwegian
// country calling code: an 8-digit local number gains the +47 prefix, a
// 10-digit number already starting with 47 gains the leading +.
func FormatPhone(raw string) string {
	if raw == "" {
		return ""
	}
	phone := phoneSpaceRe.ReplaceAllString(raw, "")
	switch {
	case strings.HasPrefix(phone, "47") && len(phone) == 10:
		return "+" + phone
	case len(phone) == 8 && isDigits(phone):
		return "+47" + phone
	default:
		return phone
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ProffURL returns the registry search link shown next to each company
// for manual lookup.
func ProffURL(orgNumber string) string {
	if orgNumber == "" {
		return ""
	}
	return fmt.Sprintf("https://www.proff.no/bransjesøk?q=%s", orgNumber)
}
