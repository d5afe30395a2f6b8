package sheets

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the spreadsheet connection saved by `sheets setup` and read
// by `sheets sync`.
type Config struct {
	SpreadsheetID       string `json:"spreadsheet_id"`
	SheetName           string `json:"sheet_name"`
	ServiceAccountEmail string `json:"service_account_email,omitempty"`
	SetupDate           string `json:"setup_date"`
}

// LoadConfig reads a saved connection. os.ErrNotExist propagates so
// callers can tell "not set up yet" apart from a broken file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing sheets config %s: %w", path, err)
	}
	if cfg.SpreadsheetID == "" || cfg.SheetName == "" {
		return Config{}, fmt.Errorf("sheets config %s lacks spreadsheet_id or sheet_name", path)
	}
	return cfg, nil
}

// SaveConfig writes the connection file.
func SaveConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sheets config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing sheets config %s: %w", path, err)
	}
	return nil
}
