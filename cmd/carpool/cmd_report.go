package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/johanhal/carpool-crm/internal/company"
	"github.com/johanhal/carpool-crm/internal/config"
	"github.com/johanhal/carpool-crm/internal/report"
)

var (
	reportList      bool
	reportOutputDir string
	reportAreasFile string
)

var reportCmd = &cobra.Command{
	Use:   "report [area]",
	Short: "Generate ranked per-area HTML reports",
	Long: `Report renders a card-based HTML report per area, ranked by carpool
potential. Without an argument every area with enriched data is
rendered; with an argument only that area.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportList, "list", false, "list configured areas and their data status")
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "output", "directory holding per-area data folders")
	reportCmd.Flags().StringVar(&reportAreasFile, "areas", "areas.yaml", "area catalogue file")
}

func runReport(cmd *cobra.Command, args []string) error {
	areas, err := config.LoadAreas(reportAreasFile)
	if err != nil {
		return err
	}

	if reportList {
		fmt.Println("Configured areas:")
		for _, a := range areas {
			status := "no data"
			if _, err := os.Stat(areaCSVPath(a)); err == nil {
				status = "ready"
			}
			fmt.Printf("  %-12s %s (%s)\n", a.Folder, a.Name, status)
			if a.Description != "" {
				fmt.Printf("               %s\n", a.Description)
			}
		}
		return nil
	}

	if len(args) == 1 {
		area, ok := config.FindArea(areas, args[0])
		if !ok {
			return fmt.Errorf("unknown area %q, see `carpool report --list`", args[0])
		}
		return renderArea(area)
	}

	rendered := 0
	for _, a := range areas {
		if _, err := os.Stat(areaCSVPath(a)); err != nil {
			continue
		}
		if err := renderArea(a); err != nil {
			return err
		}
		rendered++
	}
	if rendered == 0 {
		fmt.Println("No areas have enriched data yet. Run `carpool enrich` first.")
	}
	return nil
}

func areaCSVPath(a config.Area) string {
	return filepath.Join(reportOutputDir, a.Folder, "bedrifter.csv")
}

func renderArea(a config.Area) error {
	csvPath := areaCSVPath(a)
	rows, err := company.ReadCSV(csvPath)
	if err != nil {
		return fmt.Errorf("reading %s (run `carpool enrich` first): %w", csvPath, err)
	}

	htmlPath := filepath.Join(reportOutputDir, a.Folder, "index.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", htmlPath, err)
	}
	if err := report.RenderCards(f, rows, a.Name); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report %s: %w", htmlPath, err)
	}
	fmt.Printf("Report for %s: %s (%d companies)\n", a.Name, htmlPath, len(rows))
	return nil
}
