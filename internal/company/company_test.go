package company

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCSVRoundTrip(t *testing.T) {
	rows := []Company{
		{
			OrgNumber:      "987654321",
			Name:           "Lillestrøm Logistikk AS",
			Employees:      120,
			EmployeesKnown: true,
			Address:        "Storgata 1, 2000 Lillestrøm",
			IndustryCode:   "52.100",
			IndustryDesc:   "Lagring",
			Source:         "hovedenhet",
			Geohash:        "u4xsq9e2f",
			Website:        "https://example.no",
			Email:          "post@example.no",
			Phone:          "+4712345678",
			ProffURL:       "https://www.proff.no/bransjesøk?q=987654321",
		},
	}
	rows[0].SetLocation(59.956, 11.049)

	path := filepath.Join(t.TempDir(), "bedrifter.csv")
	if err := WriteCSV(path, rows, EnrichColumns); err != nil {
		t.Fatal(err)
	}

	got, err := ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	c := got[0]
	if c.OrgNumber != "987654321" || c.Name != "Lillestrøm Logistikk AS" {
		t.Errorf("identity columns lost: %+v", c)
	}
	if !c.EmployeesKnown || c.Employees != 120 {
		t.Errorf("employee count lost: %+v", c)
	}
	if !c.HasLocation || c.Lat != 59.956 || c.Lon != 11.049 {
		t.Errorf("location lost: %+v", c)
	}
	if c.Website != "https://example.no" || c.ProffURL == "" {
		t.Errorf("contact columns lost: %+v", c)
	}
}

func TestReadCSVToleratesExtraColumns(t *testing.T) {
	content := "organisasjonsnummer,navn,kontakt_navn,kontakt2_navn,ukjent_kolonne\n" +
		"123,Testbedrift AS,Kari Nordmann,Ola Nordmann,whatever\n"
	path := filepath.Join(t.TempDir(), "manual.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Contacts[0].Name != "Kari Nordmann" || rows[0].Contacts[1].Name != "Ola Nordmann" {
		t.Errorf("contact columns not mapped: %+v", rows[0].Contacts)
	}
	if rows[0].EmployeesKnown {
		t.Error("missing employee column should leave count unknown")
	}
}

func TestFilterByEmployees(t *testing.T) {
	rows := []Company{
		{OrgNumber: "1", Employees: 5, EmployeesKnown: true},
		{OrgNumber: "2", Employees: 50, EmployeesKnown: true},
		{OrgNumber: "3"}, // unknown count
		{OrgNumber: "4", Employees: 500, EmployeesKnown: true},
	}
	got := FilterByEmployees(rows, 10, 100)
	if len(got) != 1 || got[0].OrgNumber != "2" {
		t.Errorf("unexpected filter result: %+v", got)
	}
}

func TestDedupeByAddressPrefersPrimaryUnit(t *testing.T) {
	rows := []Company{
		{OrgNumber: "1", Address: "Storgata 1, 2000 Lillestrøm", Source: "underenhet"},
		{OrgNumber: "2", Address: "Storgata 1, 2000 Lillestrøm", Source: "hovedenhet"},
		{OrgNumber: "3", Address: "Industriveien 5, 2007 Kjeller", Source: "underenhet"},
	}

	got := DedupeByAddress(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows after dedup, got %d", len(got))
	}
	byAddr := map[string]string{}
	for _, c := range got {
		byAddr[c.Address] = c.OrgNumber
	}
	if byAddr["Storgata 1, 2000 Lillestrøm"] != "2" {
		t.Error("primary unit should win on duplicate address")
	}
}

func TestDedupeIsIdempotent(t *testing.T) {
	rows := []Company{
		{OrgNumber: "1", Address: "A", Source: "hovedenhet"},
		{OrgNumber: "2", Address: "A", Source: "underenhet"},
		{OrgNumber: "3", Address: "B", Source: "underenhet"},
	}
	once := DedupeByAddress(rows)
	twice := DedupeByAddress(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedup not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestDedupeByOrgNumberKeepsFirst(t *testing.T) {
	rows := []Company{
		{OrgNumber: "1", Source: "hovedenhet"},
		{OrgNumber: "1", Source: "underenhet"},
		{OrgNumber: "2", Source: "underenhet"},
	}
	got := DedupeByOrgNumber(rows)
	if len(got) != 2 || got[0].Source != "hovedenhet" {
		t.Errorf("unexpected dedup result: %+v", got)
	}
}
