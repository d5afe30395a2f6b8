package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/johanhal/carpool-crm/internal/brreg"
	"github.com/johanhal/carpool-crm/internal/cache"
	"github.com/johanhal/carpool-crm/internal/company"
	"github.com/johanhal/carpool-crm/internal/enrich"
	"github.com/johanhal/carpool-crm/internal/report"
)

var enrichOutput string

var enrichCmd = &cobra.Command{
	Use:   "enrich <input.csv>",
	Short: "Enrich filtered companies with contact details",
	Long: `Enrich fetches website, email and phone details for each company from
the national registry, writes the enriched CSV and an HTML report, and
offers to sync the result to the shared spreadsheet.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "output CSV path (default <input dir>/bedrifter.csv)")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	fmt.Printf("Loading companies from %s...\n", inputPath)

	rows, err := company.ReadCSV(inputPath)
	if err != nil {
		return err
	}
	rows = company.DedupeByOrgNumber(rows)
	fmt.Printf("  %d unique companies to process\n", len(rows))

	store, err := cache.New[enrich.Record](filepath.Join(dataDir, "brreg_cache.json"), cache.WithLogger(logger))
	if err != nil {
		return err
	}
	enricher := enrich.New(brreg.NewClient(), store, enrich.WithLogger(logger))

	cached := 0
	for _, c := range rows {
		if enricher.Cached(c.OrgNumber) {
			cached++
		}
	}
	fmt.Printf("\nEnriching %d companies with registry data\n", len(rows))
	fmt.Printf("  Cache: %d hits, %d API calls needed\n", cached, len(rows)-cached)

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription("Enriching"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for i := range rows {
		contact := enricher.Enrich(cmd.Context(), rows[i].OrgNumber)
		rows[i] = enrich.Apply(rows[i], contact)
		_ = bar.Add(1)
	}
	if err := store.Flush(); err != nil {
		return fmt.Errorf("saving contact cache: %w", err)
	}

	outputPath := enrichOutput
	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(inputPath), "bedrifter.csv")
	}
	if err := company.WriteCSV(outputPath, rows, company.EnrichColumns); err != nil {
		return err
	}
	fmt.Printf("\nEnriched data saved to %s\n", outputPath)

	htmlPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".html"
	title := reportTitle(outputPath)
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", htmlPath, err)
	}
	if err := report.RenderTable(f, rows, title, outputPath); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report %s: %w", htmlPath, err)
	}
	fmt.Printf("HTML report saved to %s\n", htmlPath)

	offerSheetsSync(outputPath)

	withWebsite, withEmail, withPhone := 0, 0, 0
	for _, c := range rows {
		if c.Website != "" {
			withWebsite++
		}
		if c.Email != "" {
			withEmail++
		}
		if c.Phone != "" || c.Mobile != "" {
			withPhone++
		}
	}
	fmt.Printf("\nSummary: %d companies enriched\n", len(rows))
	fmt.Printf("  With website: %d\n", withWebsite)
	fmt.Printf("  With email:   %d\n", withEmail)
	fmt.Printf("  With phone:   %d\n", withPhone)
	fmt.Printf("\nOpen the report: open %q\n", htmlPath)
	return nil
}

var titleCaser = cases.Title(language.Norwegian)

func reportTitle(outputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	return titleCaser.String(strings.ReplaceAll(stem, "_", " "))
}

// offerSheetsSync prompts for a spreadsheet sync when running
// interactively. Non-interactive runs (pipes, cron) skip the prompt.
func offerSheetsSync(csvPath string) {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return
	}
	fmt.Print("\nUpdate Google Sheets? (Y/n): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes", "ja":
		if err := syncCSVToSheets(csvPath, ""); err != nil {
			fmt.Printf("Could not sync: %v\n", err)
			fmt.Println("Run `carpool sheets setup` to configure the connection.")
		}
	}
}
