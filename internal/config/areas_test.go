package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAreasMissingFileUsesDefaults(t *testing.T) {
	areas, err := LoadAreas(filepath.Join(t.TempDir(), "no-such.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(areas) != 2 {
		t.Fatalf("expected built-in catalogue, got %+v", areas)
	}
	if _, ok := FindArea(areas, "hagan"); !ok {
		t.Error("default catalogue missing hagan")
	}
	if a, ok := FindArea(areas, "a_s"); !ok || a.Name != "Ås" {
		t.Errorf("default catalogue missing a_s: %+v", a)
	}
}

func TestLoadAreasFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.yaml")
	doc := `areas:
  - name: Lillestrøm
    description: sentrum
    folder: lillestrom
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	areas, err := LoadAreas(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(areas) != 1 || areas[0].Name != "Lillestrøm" || areas[0].Folder != "lillestrom" {
		t.Errorf("unexpected catalogue: %+v", areas)
	}
}

func TestLoadAreasRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.yaml")
	if err := os.WriteFile(path, []byte("areas:\n  - name: Uten mappe\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAreas(path); err == nil {
		t.Error("entry without folder should be rejected")
	}
}

func TestLoadAreasRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.yaml")
	if err := os.WriteFile(path, []byte("areas: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAreas(path); err == nil {
		t.Error("malformed YAML should be rejected")
	}
}
