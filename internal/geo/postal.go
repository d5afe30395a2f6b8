package geo

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// postalHeaderNoiseLines is the number of preamble lines before the header
// row in the postal-code coordinate table.
const postalHeaderNoiseLines = 4

// PostalEntry is one postal code with its centroid coordinate.
type PostalEntry struct {
	Code string
	Lat  float64
	Lon  float64
}

// PostalTable maps postal codes to centroid coordinates, loaded from the
// local tab-separated snapshot.
type PostalTable struct {
	entries []PostalEntry
}

// Len returns the number of postal codes with a usable centroid.
func (t *PostalTable) Len() int {
	return len(t.entries)
}

// CodesWithin returns the set of postal codes whose centroid falls inside
// the (typically margin-expanded) bounding box.
func (t *PostalTable) CodesWithin(b Bound) map[string]struct{} {
	codes := make(map[string]struct{})
	for _, e := range t.entries {
		if b.Contains(e.Lat, e.Lon) {
			codes[e.Code] = struct{}{}
		}
	}
	return codes
}

// LoadPostalTable reads the postal-code coordinate table: tab-separated,
// a fixed number of preamble lines, then a header row naming at least the
// POSTNR, LAT and LON columns. Rows with missing or unparseable
// coordinates are skipped.
func LoadPostalTable(path string, log *zap.Logger) (*PostalTable, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening postal table %s: %w", path, err)
	}
	defer fh.Close()

	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for i := 0; i < postalHeaderNoiseLines; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("postal table %s: unexpected end of preamble", path)
		}
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("postal table %s: missing header row", path)
	}

	header := strings.Split(sc.Text(), "\t")
	codeIdx, latIdx, lonIdx := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "POSTNR":
			codeIdx = i
		case "LAT":
			latIdx = i
		case "LON":
			lonIdx = i
		}
	}
	if codeIdx < 0 || latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("postal table %s: header lacks POSTNR/LAT/LON columns", path)
	}

	t := &PostalTable{}
	skipped := 0
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) <= codeIdx || len(fields) <= latIdx || len(fields) <= lonIdx {
			skipped++
			continue
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(fields[latIdx]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(fields[lonIdx]), 64)
		code := strings.TrimSpace(fields[codeIdx])
		if code == "" || latErr != nil || lonErr != nil {
			skipped++
			continue
		}
		t.entries = append(t.entries, PostalEntry{Code: code, Lat: lat, Lon: lon})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading postal table %s: %w", path, err)
	}
	if skipped > 0 {
		log.Debug("skipped postal table rows", zap.Int("rows", skipped))
	}
	return t, nil
}
