package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/johanhal/carpool-crm/internal/company"
	"github.com/johanhal/carpool-crm/internal/sheets"
)

const (
	sheetsConfigFile   = "sheets_config.json"
	serviceAccountFile = ".credentials/service_account.json"
)

var sheetsXLSXPath string

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Manage the shared spreadsheet",
}

var sheetsSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive first-time spreadsheet setup",
	RunE:  runSheetsSetup,
}

var sheetsSyncCmd = &cobra.Command{
	Use:   "sync <csv>",
	Short: "Sync an enriched CSV into the spreadsheet",
	Long: `Sync merges the CSV into the configured spreadsheet. Pipeline columns
are overwritten; the sales team's columns (status, notes, follow-ups)
are preserved, as are rows from other areas.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return syncCSVToSheets(args[0], sheetsXLSXPath)
	},
}

func init() {
	sheetsSyncCmd.Flags().StringVar(&sheetsXLSXPath, "xlsx", "", "sync into a local xlsx workbook instead of Google Sheets")
	sheetsCmd.AddCommand(sheetsSetupCmd)
	sheetsCmd.AddCommand(sheetsSyncCmd)
}

func runSheetsSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Google Sheets setup")
	fmt.Println(strings.Repeat("=", 50))

	credDir := filepath.Dir(serviceAccountFile)
	if err := os.MkdirAll(credDir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", credDir, err)
	}

	reader := bufio.NewReader(os.Stdin)

	if _, err := os.Stat(serviceAccountFile); err != nil {
		fmt.Printf("\n1. Place the service account JSON key here:\n   %s\n", serviceAccountFile)
		fmt.Println("\n   Press Enter when the file is in place...")
		if _, err := reader.ReadString('\n'); err != nil {
			return err
		}
		if _, err := os.Stat(serviceAccountFile); err != nil {
			return fmt.Errorf("service account file not found: %s", serviceAccountFile)
		}
	}

	saEmail, err := serviceAccountEmail(serviceAccountFile)
	if err != nil {
		return err
	}
	fmt.Printf("\n2. Service account found: %s\n", saEmail)

	fmt.Println("\n3. Create a Google Sheet (or reuse one) and share it with the")
	fmt.Println("   service account email above. The sheet URL looks like:")
	fmt.Println("   https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit")
	fmt.Print("\n   Paste the spreadsheet ID: ")
	spreadsheetID, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return fmt.Errorf("spreadsheet ID is required")
	}

	fmt.Print("\n   Sheet name (default: Bedrifter): ")
	sheetName, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Bedrifter"
	}

	cfg := sheets.Config{
		SpreadsheetID:       spreadsheetID,
		SheetName:           sheetName,
		ServiceAccountEmail: saEmail,
		SetupDate:           time.Now().Format(time.RFC3339),
	}
	if err := sheets.SaveConfig(sheetsConfigFile, cfg); err != nil {
		return err
	}
	fmt.Printf("\n4. Configuration saved to %s\n", sheetsConfigFile)

	fmt.Println("\n5. Testing the connection...")
	store, err := sheets.NewGoogleStore(cmd.Context(), serviceAccountFile, spreadsheetID, sheetName)
	if err != nil {
		return err
	}
	if _, err := store.ReadAll(); err != nil {
		return fmt.Errorf("connection test failed (is the sheet shared with %s?): %w", saEmail, err)
	}
	fmt.Println("   Connection OK!")
	fmt.Printf("\n   Sheet URL: https://docs.google.com/spreadsheets/d/%s/edit\n", spreadsheetID)
	fmt.Println("\nSetup complete.")
	return nil
}

func serviceAccountEmail(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading service account key: %w", err)
	}
	var key struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return "", fmt.Errorf("parsing service account key %s: %w", path, err)
	}
	return key.ClientEmail, nil
}

// syncCSVToSheets merges csvPath into the configured spreadsheet, or into
// a local xlsx workbook when xlsxPath is set. The area name is derived
// from the CSV's directory, matching the filter stage's output layout.
func syncCSVToSheets(csvPath, xlsxPath string) error {
	rows, err := company.ReadCSV(csvPath)
	if err != nil {
		return err
	}
	fmt.Printf("Read %d companies from %s\n", len(rows), csvPath)

	areaName := filepath.Base(filepath.Dir(csvPath))
	if areaName == "." || areaName == string(filepath.Separator) {
		stem := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
		areaName = strings.SplitN(stem, "_", 2)[0]
	}

	var store sheets.ValueStore
	if xlsxPath != "" {
		store = sheets.NewXLSXStore(xlsxPath, "Bedrifter")
	} else {
		cfg, err := sheets.LoadConfig(sheetsConfigFile)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("no spreadsheet configured, run `carpool sheets setup` first")
			}
			return err
		}
		gs, err := sheets.NewGoogleStore(context.Background(), serviceAccountFile, cfg.SpreadsheetID, cfg.SheetName)
		if err != nil {
			return err
		}
		store = gs
		defer fmt.Printf("\nSheet: https://docs.google.com/spreadsheets/d/%s/edit\n", cfg.SpreadsheetID)
	}

	syncer := sheets.NewSyncer(store, areaName, sheets.WithLogger(logger))
	stats, err := syncer.Sync(rows)
	if err != nil {
		return err
	}
	fmt.Printf("Synced: %d total, %d new, %d updated, %d preserved\n",
		stats.Total, stats.New, stats.Updated, stats.Preserved)
	return nil
}
