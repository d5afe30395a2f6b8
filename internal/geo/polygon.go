// Package geo handles the geometric side of area filtering: GeoJSON
// polygon loading, bounding-box computation, exact point containment and
// the postal-code centroid table. All containment math is delegated to
// the S2 geometry library.
package geo

import (
	"encoding/json"
	"fmt"
	"os"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// geohashPrecision gives ~5m cells, enough to group companies sharing an
// entrance without merging neighbouring buildings.
const geohashPrecision = 9

// Bound is an axis-aligned lat/lon bounding box in decimal degrees.
type Bound struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// Expand grows the box by margin degrees on every side. Used to tolerate
// postal-code centroid imprecision in the coarse prefilter pass.
func (b Bound) Expand(margin float64) Bound {
	return Bound{
		MinLat: b.MinLat - margin,
		MinLon: b.MinLon - margin,
		MaxLat: b.MaxLat + margin,
		MaxLon: b.MaxLon + margin,
	}
}

// Contains reports whether the point lies inside the box (inclusive).
func (b Bound) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Polygon is a simple polygon, possibly with holes, or a multipolygon.
type Polygon struct {
	polys []*s2.Polygon
	bound Bound
}

// Bound returns the polygon's bounding box in degrees.
func (p *Polygon) Bound() Bound {
	return p.bound
}

// Contains performs an exact point-in-polygon test against the original
// (non-expanded) boundary.
func (p *Polygon) Contains(lat, lon float64) bool {
	pt := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	for _, poly := range p.polys {
		if poly.ContainsPoint(pt) {
			return true
		}
	}
	return false
}

// Geohash encodes a coordinate as a short location key.
func Geohash(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, geohashPrecision)
}

type geoJSONDocument struct {
	Type     string `json:"type"`
	Features []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"features"`
	Geometry    json.RawMessage `json:"geometry"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// LoadPolygon reads a GeoJSON file and returns its geometry. Accepted
// documents: a FeatureCollection (first feature is used), a Feature, or a
// bare Polygon/MultiPolygon geometry. Coordinates are [lon, lat] pairs per
// the GeoJSON convention.
func LoadPolygon(path string) (*Polygon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GeoJSON %s: %w", path, err)
	}
	return ParsePolygon(raw)
}

// ParsePolygon parses GeoJSON bytes; see LoadPolygon.
func ParsePolygon(raw []byte) (*Polygon, error) {
	var doc geoJSONDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing GeoJSON: %w", err)
	}

	var geom json.RawMessage
	switch doc.Type {
	case "FeatureCollection":
		if len(doc.Features) == 0 {
			return nil, fmt.Errorf("GeoJSON FeatureCollection has no features")
		}
		geom = doc.Features[0].Geometry
	case "Feature":
		geom = doc.Geometry
	default:
		geom = raw
	}

	var g geoJSONGeometry
	if err := json.Unmarshal(geom, &g); err != nil {
		return nil, fmt.Errorf("parsing GeoJSON geometry: %w", err)
	}

	var rings [][][][]float64
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("parsing polygon coordinates: %w", err)
		}
		rings = [][][][]float64{coords}
	case "MultiPolygon":
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parsing multipolygon coordinates: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported GeoJSON geometry type %q", g.Type)
	}

	p := &Polygon{bound: Bound{MinLat: 90, MinLon: 180, MaxLat: -90, MaxLon: -180}}
	for _, polyRings := range rings {
		if len(polyRings) == 0 {
			continue
		}
		loops := make([]*s2.Loop, 0, len(polyRings))
		for _, ring := range polyRings {
			loop, err := loopFromRing(ring, &p.bound)
			if err != nil {
				return nil, err
			}
			loops = append(loops, loop)
		}
		p.polys = append(p.polys, s2.PolygonFromLoops(loops))
	}
	if len(p.polys) == 0 {
		return nil, fmt.Errorf("GeoJSON geometry contains no rings")
	}
	return p, nil
}

func loopFromRing(ring [][]float64, bound *Bound) (*s2.Loop, error) {
	// GeoJSON rings repeat the first vertex at the end; S2 loops must not.
	if len(ring) > 1 {
		first, last := ring[0], ring[len(ring)-1]
		if len(first) >= 2 && len(last) >= 2 && first[0] == last[0] && first[1] == last[1] {
			ring = ring[:len(ring)-1]
		}
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("polygon ring has %d vertices, need at least 3", len(ring))
	}

	pts := make([]s2.Point, 0, len(ring))
	for _, v := range ring {
		if len(v) < 2 {
			return nil, fmt.Errorf("polygon vertex has %d coordinates, need [lon, lat]", len(v))
		}
		lon, lat := v[0], v[1]
		if lat < bound.MinLat {
			bound.MinLat = lat
		}
		if lat > bound.MaxLat {
			bound.MaxLat = lat
		}
		if lon < bound.MinLon {
			bound.MinLon = lon
		}
		if lon > bound.MaxLon {
			bound.MaxLon = lon
		}
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)))
	}

	loop := s2.LoopFromPoints(pts)
	// Winding order in hand-drawn GeoJSON files is unreliable; normalize
	// so each loop encloses at most half the sphere and nesting decides
	// which rings are holes.
	loop.Normalize()
	return loop, nil
}
