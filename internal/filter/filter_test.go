package filter

import (
	"context"
	"reflect"
	"testing"

	"github.com/johanhal/carpool-crm/internal/company"
	"github.com/johanhal/carpool-crm/internal/geo"
)

// stubGeocoder resolves addresses from a fixed table and counts lookups.
type stubGeocoder struct {
	coords map[string][2]float64 // address -> lat, lon
	calls  int
}

func (s *stubGeocoder) Geocode(_ context.Context, address, _, _, _ string) (float64, float64, bool) {
	s.calls++
	c, ok := s.coords[address]
	if !ok {
		return 0, 0, false
	}
	return c[0], c[1], true
}

func (s *stubGeocoder) Cached(address, _, _ string) bool {
	_, ok := s.coords[address]
	return ok
}

// Rectangle over 11.0-11.1 E, 59.9-60.0 N, covering postal code 2007.
const areaJSON = `{
  "type": "Feature",
  "geometry": {
    "type": "Polygon",
    "coordinates": [[[11.0, 59.9], [11.1, 59.9], [11.1, 60.0], [11.0, 60.0], [11.0, 59.9]]]
  }
}`

func testPolygon(t *testing.T) *geo.Polygon {
	t.Helper()
	p, err := geo.ParsePolygon([]byte(areaJSON))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestEndToEndScenario(t *testing.T) {
	polygon := testPolygon(t)

	rows := []company.Company{
		{OrgNumber: "111", Name: "Innenfor AS", Employees: 100, EmployeesKnown: true,
			Address: "Industriveien 5", PostalCode: "2007", City: "KJELLER", Source: company.SourcePrimary},
		{OrgNumber: "222", Name: "Utenfor AS", Employees: 100, EmployeesKnown: true,
			Address: "Karl Johans gate 1", PostalCode: "0154", City: "OSLO", Source: company.SourcePrimary},
	}

	g := &stubGeocoder{coords: map[string][2]float64{
		"Industriveien 5":    {59.97, 11.04},
		"Karl Johans gate 1": {59.91, 10.74}, // outside the polygon
	}}

	got, stats, err := Run(context.Background(), polygon, rows, g, Options{MaxEmployees: NoEmployeeBound})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly the inside company, got %d rows", len(got))
	}
	c := got[0]
	if c.OrgNumber != "111" {
		t.Errorf("wrong company survived: %+v", c)
	}
	if c.Address != "Industriveien 5, 2007 KJELLER" {
		t.Errorf("formatted address wrong: %q", c.Address)
	}
	if !c.HasLocation || c.Lat != 59.97 || c.Lon != 11.04 {
		t.Errorf("coordinates not populated: %+v", c)
	}
	if c.Geohash == "" {
		t.Error("geohash not populated")
	}
	if stats.Inside != 1 || stats.Geocoded != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestEmptyAddressSkipped(t *testing.T) {
	polygon := testPolygon(t)
	rows := []company.Company{
		{OrgNumber: "111", Employees: 10, EmployeesKnown: true, Address: "", PostalCode: "2007", Source: company.SourcePrimary},
	}
	g := &stubGeocoder{coords: map[string][2]float64{}}

	got, stats, err := Run(context.Background(), polygon, rows, g, Options{MaxEmployees: NoEmployeeBound})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("row without address must be excluded, got %+v", got)
	}
	if g.calls != 0 {
		t.Errorf("row without address must not be geocoded, calls=%d", g.calls)
	}
	if stats.Candidates != 1 || stats.Geocoded != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestNegativeGeocodeExcludesRow(t *testing.T) {
	polygon := testPolygon(t)
	rows := []company.Company{
		{OrgNumber: "111", Employees: 10, EmployeesKnown: true,
			Address: "Ukjent vei 1", PostalCode: "2007", City: "KJELLER", Source: company.SourcePrimary},
	}
	g := &stubGeocoder{coords: map[string][2]float64{}} // resolves nothing

	got, _, err := Run(context.Background(), polygon, rows, g, Options{MaxEmployees: NoEmployeeBound})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("unresolvable address must be excluded, got %+v", got)
	}
}

func TestEmployeeBounds(t *testing.T) {
	polygon := testPolygon(t)
	rows := []company.Company{
		{OrgNumber: "small", Employees: 3, EmployeesKnown: true, Address: "A", PostalCode: "2007", Source: company.SourcePrimary},
		{OrgNumber: "fit", Employees: 30, EmployeesKnown: true, Address: "B", PostalCode: "2007", Source: company.SourcePrimary},
		{OrgNumber: "unknown", Address: "C", PostalCode: "2007", Source: company.SourcePrimary},
	}
	g := &stubGeocoder{coords: map[string][2]float64{
		"A": {59.95, 11.05}, "B": {59.95, 11.05}, "C": {59.95, 11.05},
	}}

	got, _, err := Run(context.Background(), polygon, rows, g, Options{MinEmployees: 10, MaxEmployees: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].OrgNumber != "fit" {
		t.Errorf("employee bounds not applied: %+v", got)
	}
}

func TestExplicitZeroMaxEmployees(t *testing.T) {
	polygon := testPolygon(t)
	rows := []company.Company{
		{OrgNumber: "none", Employees: 0, EmployeesKnown: true, Address: "A", PostalCode: "2007", Source: company.SourcePrimary},
		{OrgNumber: "some", Employees: 10, EmployeesKnown: true, Address: "B", PostalCode: "2007", Source: company.SourcePrimary},
	}
	g := &stubGeocoder{coords: map[string][2]float64{
		"A": {59.95, 11.05}, "B": {59.96, 11.06},
	}}

	// A maximum of 0 is a real bound, not "unbounded".
	got, _, err := Run(context.Background(), polygon, rows, g, Options{MaxEmployees: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].OrgNumber != "none" {
		t.Errorf("max-employees 0 should keep only zero-employee rows: %+v", got)
	}
}

func TestDuplicateAddressPrefersPrimaryUnit(t *testing.T) {
	polygon := testPolygon(t)
	rows := []company.Company{
		{OrgNumber: "sub", Employees: 10, EmployeesKnown: true,
			Address: "Industriveien 5", PostalCode: "2007", City: "KJELLER", Source: company.SourceSubUnit},
		{OrgNumber: "main", Employees: 10, EmployeesKnown: true,
			Address: "Industriveien 5", PostalCode: "2007", City: "KJELLER", Source: company.SourcePrimary},
	}
	g := &stubGeocoder{coords: map[string][2]float64{"Industriveien 5": {59.95, 11.05}}}

	got, stats, err := Run(context.Background(), polygon, rows, g, Options{MaxEmployees: NoEmployeeBound})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].OrgNumber != "main" {
		t.Errorf("primary unit should win the address tie: %+v", got)
	}
	if stats.DedupRemoved != 1 {
		t.Errorf("expected one deduped row, stats: %+v", stats)
	}

	// Dedup is idempotent: filtering the already-deduped output again
	// changes nothing.
	again := company.DedupeByAddress(got)
	if !reflect.DeepEqual(got, again) {
		t.Errorf("dedup not idempotent: %+v vs %+v", got, again)
	}
}

func TestCandidatePostalCodes(t *testing.T) {
	polygon := testPolygon(t)

	// Build a postal table through its public loader via geo tests is
	// overkill here; exercise the bound math directly instead.
	b := polygon.Bound().Expand(DefaultMargin)
	if !b.Contains(59.87, 11.05) {
		t.Error("margin should admit centroids just outside the polygon")
	}
	if b.Contains(59.5, 11.05) {
		t.Error("distant centroids must stay excluded")
	}
}
