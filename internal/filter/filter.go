// Package filter restricts the company registry to an area: a coarse
// postal-code bounding-box pass bounds the geocoding workload, then each
// surviving address is geocoded and tested exactly against the polygon.
package filter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/johanhal/carpool-crm/internal/company"
	"github.com/johanhal/carpool-crm/internal/geo"
)

// DefaultMargin is the bounding-box expansion in decimal degrees,
// tolerating postal-code centroid imprecision.
const DefaultMargin = 0.05

// NoEmployeeBound disables the upper employee bound. An explicit
// MaxEmployees of 0 keeps only zero-employee companies.
const NoEmployeeBound = 99999

// Geocoder resolves a street address to a coordinate; implemented by
// geocode.Geocoder.
type Geocoder interface {
	Geocode(ctx context.Context, address, postalCode, city, municipalityHint string) (lat, lon float64, ok bool)
	Cached(address, postalCode, city string) bool
}

// Options tune a filter run.
type Options struct {
	MinEmployees int
	// MaxEmployees is the inclusive upper employee bound. Pass
	// NoEmployeeBound for no limit; 0 matches only zero-employee rows.
	MaxEmployees int
	// Progress, when set, is called after each geocoded address.
	Progress func(done, total int)
	Log      *zap.Logger
}

// Stats describes what a filter run did.
type Stats struct {
	Candidates   int // rows surviving the postal + employee passes
	Geocoded     int // rows with a non-empty address that were geocoded
	CacheHits    int // geocoded rows answered from cache
	Inside       int // rows inside the polygon, before dedup
	PrimaryUnits int
	SubUnits     int
	DedupRemoved int
}

// CandidatePostalCodes runs the coarse pass: postal codes whose centroid
// lies in the polygon's margin-expanded bounding box.
func CandidatePostalCodes(polygon *geo.Polygon, table *geo.PostalTable) map[string]struct{} {
	return table.CodesWithin(polygon.Bound().Expand(DefaultMargin))
}

// Run performs the exact pass over rows already restricted to candidate
// postal codes: employee bounds, per-address geocoding, point-in-polygon
// containment and address dedup. Rows without an address, with a negative
// geocode result or outside the polygon are excluded. The returned rows
// carry the formatted address, coordinates and a location geohash.
func Run(ctx context.Context, polygon *geo.Polygon, rows []company.Company, geocoder Geocoder, opts Options) ([]company.Company, Stats, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	eligible := company.FilterByEmployees(rows, opts.MinEmployees, opts.MaxEmployees)
	stats := Stats{Candidates: len(eligible)}

	// Count addressable rows up front so progress reporting has a total.
	addressable := make([]company.Company, 0, len(eligible))
	for _, c := range eligible {
		if c.Address == "" {
			continue
		}
		addressable = append(addressable, c)
		if geocoder.Cached(c.Address, c.PostalCode, c.City) {
			stats.CacheHits++
		}
	}

	var inside []company.Company
	for i, c := range addressable {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("filter interrupted: %w", err)
		}

		lat, lon, ok := geocoder.Geocode(ctx, c.Address, c.PostalCode, c.City, c.MunicipalityCode)
		stats.Geocoded++
		if opts.Progress != nil {
			opts.Progress(i+1, len(addressable))
		}
		if !ok {
			continue
		}
		if !polygon.Contains(lat, lon) {
			continue
		}

		c.SetLocation(lat, lon)
		c.Geohash = geo.Geohash(lat, lon)
		c.Address = fmt.Sprintf("%s, %s %s", c.Address, c.PostalCode, c.City)
		inside = append(inside, c)
	}
	stats.Inside = len(inside)

	result := company.DedupeByAddress(inside)
	stats.DedupRemoved = len(inside) - len(result)
	for _, c := range result {
		if c.Source == company.SourcePrimary {
			stats.PrimaryUnits++
		} else {
			stats.SubUnits++
		}
	}

	log.Info("area filter finished",
		zap.Int("candidates", stats.Candidates),
		zap.Int("geocoded", stats.Geocoded),
		zap.Int("inside", stats.Inside),
		zap.Int("deduped", stats.DedupRemoved))
	return result, stats, nil
}
