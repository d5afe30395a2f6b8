package brreg

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/johanhal/carpool-crm/internal/company"
)

func writeGzipCSV(t *testing.T, path, content string) {
	t.Helper()
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	gz := gzip.NewWriter(fh)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

const unitsCSV = `"organisasjonsnummer","navn","antallAnsatte","forretningsadresse.adresse","forretningsadresse.postnummer","forretningsadresse.poststed","forretningsadresse.kommunenummer","naeringskode1.kode","naeringskode1.beskrivelse"
"111111111","Kjeller Produksjon AS","150","Industriveien 5","2007","KJELLER","3030","25.110","Produksjon av metallkonstruksjoner"
"222222222","Oslo Kontor AS","10","Karl Johans gate 1","0154","OSLO","0301","70.220","Bedriftsrådgivning"
`

const subUnitsCSV = `"organisasjonsnummer","navn","antallAnsatte","beliggenhetsadresse.adresse","beliggenhetsadresse.postnummer","beliggenhetsadresse.poststed","beliggenhetsadresse.kommunenummer","naeringskode1.kode","naeringskode1.beskrivelse"
"333333333","Kjeller Produksjon AS avd Lager","40","Industriveien 7","2007","KJELLER","3030","52.100","Lagring"
`

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeGzipCSV(t, filepath.Join(dir, UnitsFile), unitsCSV)
	writeGzipCSV(t, filepath.Join(dir, SubUnitsFile), subUnitsCSV)

	rows, err := LoadSnapshot(dir, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Source != company.SourcePrimary || rows[2].Source != company.SourceSubUnit {
		t.Errorf("sources not tagged: %q, %q", rows[0].Source, rows[2].Source)
	}
	if rows[0].Address != "Industriveien 5" || rows[0].PostalCode != "2007" {
		t.Errorf("unit address columns not renamed: %+v", rows[0])
	}
	if rows[2].Address != "Industriveien 7" {
		t.Errorf("sub-unit address columns not renamed: %+v", rows[2])
	}
	if !rows[0].EmployeesKnown || rows[0].Employees != 150 {
		t.Errorf("employee count not parsed: %+v", rows[0])
	}
}

func TestLoadSnapshotRestrictsByPostalCode(t *testing.T) {
	dir := t.TempDir()
	writeGzipCSV(t, filepath.Join(dir, UnitsFile), unitsCSV)
	writeGzipCSV(t, filepath.Join(dir, SubUnitsFile), subUnitsCSV)

	rows, err := LoadSnapshot(dir, map[string]struct{}{"2007": {}}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows within postal set, got %d", len(rows))
	}
	for _, c := range rows {
		if c.PostalCode != "2007" {
			t.Errorf("row outside postal set survived: %+v", c)
		}
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(t.TempDir(), nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing snapshot files")
	}
}

func TestClientUnit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/enheter/111111111":
			w.Write([]byte(`{"organisasjonsnummer":"111111111","hjemmeside":"example.no","epostadresse":"post@example.no","telefon":"63 80 00 00"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURLs(srv.URL+"/enheter", srv.URL+"/underenheter"))

	d, found, err := c.Unit(context.Background(), "111111111")
	if err != nil || !found {
		t.Fatalf("Unit: found=%v err=%v", found, err)
	}
	if d.Website != "example.no" || d.Email != "post@example.no" {
		t.Errorf("unexpected detail: %+v", d)
	}

	_, found, err = c.Unit(context.Background(), "999999999")
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if found {
		t.Error("404 should report not found")
	}
}
