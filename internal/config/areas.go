// Package config holds the area catalogue: the named geographic areas the
// pipeline knows about, each bound to a polygon file and an output folder.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Area is one named target area.
type Area struct {
	// Name is the display name, used in report headings and cluster names.
	Name string `yaml:"name"`
	// Description is an optional free-text note shown by `report --list`.
	Description string `yaml:"description,omitempty"`
	// Folder is the directory under the output root holding this area's
	// artifacts (CSV files and reports). Also the key used on the CLI.
	Folder string `yaml:"folder"`
}

// DefaultAreas is the built-in catalogue, used when no areas file exists.
func DefaultAreas() []Area {
	return []Area{
		{Name: "Hagan/Gjelleråsen", Description: "Nittedal sør, Gjelleråsen-området", Folder: "hagan"},
		{Name: "Ås", Description: "Ås sentrum og campusområdet", Folder: "a_s"},
	}
}

// LoadAreas reads the catalogue from a YAML file. A missing file falls
// back to DefaultAreas; a malformed file is an error.
func LoadAreas(path string) ([]Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultAreas(), nil
		}
		return nil, fmt.Errorf("reading areas file %s: %w", path, err)
	}

	var doc struct {
		Areas []Area `yaml:"areas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing areas file %s: %w", path, err)
	}
	if len(doc.Areas) == 0 {
		return nil, fmt.Errorf("areas file %s defines no areas", path)
	}
	for i, a := range doc.Areas {
		if a.Name == "" || a.Folder == "" {
			return nil, fmt.Errorf("areas file %s: entry %d needs both name and folder", path, i+1)
		}
	}
	return doc.Areas, nil
}

// FindArea looks an area up by its folder key.
func FindArea(areas []Area, folder string) (Area, bool) {
	for _, a := range areas {
		if a.Folder == folder {
			return a, true
		}
	}
	return Area{}, false
}
