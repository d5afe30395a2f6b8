// Package brreg reads the local snapshot of the Norwegian company
// registry (Brønnøysundregistrene) and queries its detail API for contact
// fields. The snapshot consists of two gzipped CSV dumps: primary units
// (enheter) and sub-units (underenheter).
package brreg

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/johanhal/carpool-crm/internal/company"
)

const (
	// UnitsFile and SubUnitsFile are the snapshot file names under the
	// data directory.
	UnitsFile    = "enheter.csv.gz"
	SubUnitsFile = "underenheter.csv.gz"

	// PostalFile is the postal-code coordinate table file name.
	PostalFile = "postnummer.txt"
)

// snapshotColumns maps dump column headers to record fields. The two
// dumps use different prefixes for the visiting address block.
type snapshotColumns struct {
	address      string
	postalCode   string
	city         string
	municipality string
}

var (
	unitColumns    = snapshotColumns{"forretningsadresse.adresse", "forretningsadresse.postnummer", "forretningsadresse.poststed", "forretningsadresse.kommunenummer"}
	subUnitColumns = snapshotColumns{"beliggenhetsadresse.adresse", "beliggenhetsadresse.postnummer", "beliggenhetsadresse.poststed", "beliggenhetsadresse.kommunenummer"}
)

// LoadSnapshot reads both registry dumps from dataDir and returns the
// combined rows, primary units first. When postalCodes is non-nil, rows
// whose postal code is not in the set are dropped during the scan so the
// national registry never has to be materialized in full.
func LoadSnapshot(dataDir string, postalCodes map[string]struct{}, log *zap.Logger) ([]company.Company, error) {
	if log == nil {
		log = zap.NewNop()
	}

	units, err := loadDump(filepath.Join(dataDir, UnitsFile), unitColumns, company.SourcePrimary, postalCodes, log)
	if err != nil {
		return nil, err
	}
	subUnits, err := loadDump(filepath.Join(dataDir, SubUnitsFile), subUnitColumns, company.SourceSubUnit, postalCodes, log)
	if err != nil {
		return nil, err
	}

	log.Info("registry snapshot loaded",
		zap.Int("units", len(units)),
		zap.Int("subUnits", len(subUnits)))
	return append(units, subUnits...), nil
}

func loadDump(path string, cols snapshotColumns, source string, postalCodes map[string]struct{}, log *zap.Logger) ([]company.Company, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening registry dump %s: %w", path, err)
	}
	defer fh.Close()

	gz, err := gzip.NewReader(fh)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, required := range []string{"organisasjonsnummer", "navn", cols.postalCode} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("registry dump %s lacks column %q", path, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []company.Company
	skipped := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// bad line: skip, like the rest of the snapshot tooling
			skipped++
			continue
		}

		postal := field(rec, cols.postalCode)
		if postalCodes != nil {
			if _, ok := postalCodes[postal]; !ok {
				continue
			}
		}

		c := company.Company{
			OrgNumber:        field(rec, "organisasjonsnummer"),
			Name:             field(rec, "navn"),
			Address:          field(rec, cols.address),
			PostalCode:       postal,
			City:             field(rec, cols.city),
			MunicipalityCode: field(rec, cols.municipality),
			IndustryCode:     field(rec, "naeringskode1.kode"),
			IndustryDesc:     field(rec, "naeringskode1.beskrivelse"),
			Source:           source,
		}
		c.SetEmployees(field(rec, "antallAnsatte"))
		rows = append(rows, c)
	}
	if skipped > 0 {
		log.Debug("skipped malformed registry rows", zap.String("dump", path), zap.Int("rows", skipped))
	}
	return rows, nil
}
