// Package sheets synchronizes enriched company rows into a shared
// spreadsheet while preserving the sales columns humans edit there. Two
// backends exist: Google Sheets and a local xlsx workbook.
package sheets

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/johanhal/carpool-crm/internal/company"
)

// PipelineColumns are owned by the pipeline and overwritten on every sync.
var PipelineColumns = []string{
	"cluster_id",
	"cluster_name",
	"import_timestamp",
	"organisasjonsnummer",
	"navn",
	"antallAnsatte",
	"adresse",
	"latitude",
	"longitude",
	"geohash",
	"naeringskode",
	"naeringskode_beskrivelse",
	"hjemmeside",
	"epostadresse",
	"proff_url",
	"kontakt_navn",
	"kontakt_rolle",
	"kontakt_epost",
	"kontakt_telefon",
	"salgsnotater",
}

// SalesColumns are owned by the sales team and never overwritten once set.
var SalesColumns = []string{
	"status",
	"sist_kontaktet",
	"neste_oppfolging",
	"interne_notater",
	"ansvarlig",
}

// StatusValues is the dropdown offered on the status column.
var StatusValues = []string{
	"not started yet",
	"Kontaktet",
	"Interessert",
	"Ikke interessert",
}

const defaultStatus = "not started yet"

// AllColumns is the full sheet header, pipeline columns first.
func AllColumns() []string {
	cols := make([]string, 0, len(PipelineColumns)+len(SalesColumns))
	cols = append(cols, PipelineColumns...)
	cols = append(cols, SalesColumns...)
	return cols
}

// ValueStore is the backend the syncer reads and writes through.
type ValueStore interface {
	// ReadAll returns every row currently in the sheet, header included.
	// An empty or missing sheet returns no rows and no error.
	ReadAll() ([][]string, error)
	// WriteAll replaces the whole sheet with rows, header included.
	WriteAll(rows [][]string) error
	// SetStatusValidation installs the status dropdown on column col
	// (zero-based) for rowCount data rows.
	SetStatusValidation(col, rowCount int) error
}

// Stats describes what a sync did.
type Stats struct {
	Total     int // rows written, header excluded
	New       int
	Updated   int
	Preserved int // rows kept from the sheet that were not in the batch
}

// Syncer merges a batch of companies into a spreadsheet.
type Syncer struct {
	store       ValueStore
	clusterName string
	now         func() time.Time
	log         *zap.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

func withNow(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer returns a syncer that tags each row with the given cluster name.
func NewSyncer(store ValueStore, clusterName string, opts ...Option) *Syncer {
	s := &Syncer{
		store:       store,
		clusterName: clusterName,
		now:         time.Now,
		log:         zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ClusterID derives a stable short id from an area name.
func ClusterID(name string) string {
	sum := md5.Sum([]byte(name))
	return strings.ToUpper(fmt.Sprintf("%x", sum)[:8])
}

// titleCaser follows Norwegian casing rules, so names like "øst" become "Øst".
var titleCaser = cases.Title(language.Norwegian)

// Sync merges rows into the sheet. The sheet is read once; existing rows
// are matched by organisasjonsnummer through the sheet's own header row,
// which tolerates header drift between versions. Pipeline columns are
// rewritten from the batch, sales columns keep whatever the sheet holds,
// and rows that are in the sheet but not in the batch survive untouched.
// The whole sheet is then rewritten under the current header.
func (s *Syncer) Sync(rows []company.Company) (Stats, error) {
	existing, err := s.store.ReadAll()
	if err != nil {
		return Stats{}, fmt.Errorf("reading sheet: %w", err)
	}

	// Map existing rows by orgnr via the old header, so columns that
	// moved or were renamed since the last sync still resolve.
	oldByOrg := map[string]map[string]string{}
	var oldOrder []string
	if len(existing) > 1 {
		header := existing[0]
		orgIdx := -1
		for i, h := range header {
			if h == "organisasjonsnummer" {
				orgIdx = i
			}
		}
		if orgIdx < 0 {
			return Stats{}, fmt.Errorf("sheet header lacks organisasjonsnummer column")
		}
		for _, row := range existing[1:] {
			if orgIdx >= len(row) || row[orgIdx] == "" {
				continue
			}
			m := map[string]string{}
			for i, h := range header {
				if i < len(row) {
					m[h] = row[i]
				}
			}
			org := row[orgIdx]
			if _, seen := oldByOrg[org]; !seen {
				oldOrder = append(oldOrder, org)
			}
			oldByOrg[org] = m
		}
	}

	clusterID := ClusterID(s.clusterName)
	timestamp := s.now().Format("2006-01-02 15:04")
	columns := AllColumns()

	var stats Stats
	merged := map[string][]string{}
	var order []string

	for _, c := range rows {
		if c.OrgNumber == "" {
			s.log.Warn("skipping row without organization number", zap.String("name", c.Name))
			continue
		}
		old, known := oldByOrg[c.OrgNumber]
		row := make([]string, len(columns))
		for i, col := range columns {
			switch {
			case col == "cluster_id":
				row[i] = clusterID
			case col == "cluster_name":
				row[i] = s.clusterName
			case col == "import_timestamp":
				row[i] = timestamp
			case col == "navn":
				row[i] = titleCaser.String(strings.ToLower(c.Name))
			case col == "salgsnotater":
				row[i] = c.SalesNotes
			case isSalesColumn(col):
				// Sales columns are carried over verbatim; only rows
				// new to the sheet get the starting status.
				row[i] = old[col]
				if col == "status" && !known {
					row[i] = defaultStatus
				}
			default:
				row[i] = c.ColumnValue(col)
			}
		}
		if !known {
			stats.New++
		} else {
			stats.Updated++
			delete(oldByOrg, c.OrgNumber)
		}
		if _, seen := merged[c.OrgNumber]; !seen {
			order = append(order, c.OrgNumber)
		}
		merged[c.OrgNumber] = row
	}

	// Rows present in the sheet but absent from this batch stay, remapped
	// onto the current header.
	for _, org := range oldOrder {
		old, ok := oldByOrg[org]
		if !ok {
			continue
		}
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = old[col]
		}
		merged[org] = row
		order = append(order, org)
		stats.Preserved++
	}

	nameIdx := columnIndex(columns, "navn")
	sort.SliceStable(order, func(i, j int) bool {
		return strings.ToLower(merged[order[i]][nameIdx]) < strings.ToLower(merged[order[j]][nameIdx])
	})

	out := make([][]string, 0, len(order)+1)
	out = append(out, columns)
	for _, org := range order {
		out = append(out, merged[org])
	}
	if err := s.store.WriteAll(out); err != nil {
		return stats, fmt.Errorf("writing sheet: %w", err)
	}
	stats.Total = len(order)

	statusIdx := columnIndex(columns, "status")
	if err := s.store.SetStatusValidation(statusIdx, len(order)); err != nil {
		// Validation is cosmetic; the data is already written.
		s.log.Warn("could not install status dropdown", zap.Error(err))
	}

	s.log.Info("sheet synced",
		zap.Int("total", stats.Total),
		zap.Int("new", stats.New),
		zap.Int("updated", stats.Updated),
		zap.Int("preserved", stats.Preserved))
	return stats, nil
}

func isSalesColumn(col string) bool {
	for _, c := range SalesColumns {
		if c == col {
			return true
		}
	}
	return false
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
