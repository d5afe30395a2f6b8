// Package company defines the company record shared by every pipeline
// stage and the CSV files exchanged at stage boundaries. Records are
// never mutated across stages; each stage produces a new slice.
package company

import (
	"sort"
	"strconv"
	"strings"
)

// ContactPerson is a manually researched contact, carried through the
// pipeline untouched (the enrichment step never writes these).
type ContactPerson struct {
	Name  string
	Role  string
	Phone string
	Email string
}

// maxContacts is the number of kontakt/kontakt2../kontakt4 column groups
// recognized in stage CSV files.
const maxContacts = 4

// Source values: a legal entity versus one of its registered branches.
const (
	SourcePrimary = "hovedenhet"
	SourceSubUnit = "underenhet"
)

// Company is one registry row, progressively annotated by the pipeline.
type Company struct {
	OrgNumber        string
	Name             string
	Employees        int
	EmployeesKnown   bool
	Address          string // street address; "street, postal city" once filtered
	PostalCode       string
	City             string
	MunicipalityCode string
	IndustryCode     string
	IndustryDesc     string
	Source           string // "hovedenhet" or "underenhet"

	Lat         float64
	Lon         float64
	HasLocation bool
	Geohash     string

	// CSV parse bookkeeping; HasLocation is derived from these.
	latSet bool
	lonSet bool

	Website  string
	Email    string
	Phone    string
	Mobile   string
	ProffURL string

	Contacts   [maxContacts]ContactPerson
	SalesNotes string
}

// SetLocation records the geocoded coordinate.
func (c *Company) SetLocation(lat, lon float64) {
	c.Lat = lat
	c.Lon = lon
	c.HasLocation = true
}

// EmployeesString renders the employee count for CSV/report output; an
// unknown count renders as empty.
func (c Company) EmployeesString() string {
	if !c.EmployeesKnown {
		return ""
	}
	return strconv.Itoa(c.Employees)
}

// SetEmployees parses a raw employee-count string; non-numeric input
// leaves the count unknown.
func (c *Company) SetEmployees(raw string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		c.EmployeesKnown = false
		return
	}
	c.Employees = n
	c.EmployeesKnown = true
}

// BestEmail returns the manually researched contact email when present,
// else the registry email.
func (c Company) BestEmail() string {
	if c.Contacts[0].Email != "" {
		return c.Contacts[0].Email
	}
	return c.Email
}

// BestPhone prefers the researched contact phone, then the registry
// landline, then mobile.
func (c Company) BestPhone() string {
	switch {
	case c.Contacts[0].Phone != "":
		return c.Contacts[0].Phone
	case c.Phone != "":
		return c.Phone
	default:
		return c.Mobile
	}
}

// FilterByEmployees keeps rows whose employee count is known and inside
// [min, max]. Rows with an unknown count never match.
func FilterByEmployees(rows []Company, min, max int) []Company {
	out := make([]Company, 0, len(rows))
	for _, c := range rows {
		if c.EmployeesKnown && c.Employees >= min && c.Employees <= max {
			out = append(out, c)
		}
	}
	return out
}

// DedupeByAddress collapses rows that resolved to the same formatted
// address, preferring primary units: rows are stably sorted by source
// ("hovedenhet" sorts before "underenhet") and the first row per address
// wins. Running it twice yields the same set.
func DedupeByAddress(rows []Company) []Company {
	sorted := make([]Company, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Source < sorted[j].Source
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]Company, 0, len(sorted))
	for _, c := range sorted {
		if _, dup := seen[c.Address]; dup {
			continue
		}
		seen[c.Address] = struct{}{}
		out = append(out, c)
	}
	return out
}

// DedupeByOrgNumber keeps the first row per org number, preserving input
// order (filter output lists primary units first).
func DedupeByOrgNumber(rows []Company) []Company {
	seen := make(map[string]struct{}, len(rows))
	out := make([]Company, 0, len(rows))
	for _, c := range rows {
		if _, dup := seen[c.OrgNumber]; dup {
			continue
		}
		seen[c.OrgNumber] = struct{}{}
		out = append(out, c)
	}
	return out
}
