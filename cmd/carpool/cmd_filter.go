package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/johanhal/carpool-crm/internal/brreg"
	"github.com/johanhal/carpool-crm/internal/cache"
	"github.com/johanhal/carpool-crm/internal/company"
	"github.com/johanhal/carpool-crm/internal/filter"
	"github.com/johanhal/carpool-crm/internal/geo"
	"github.com/johanhal/carpool-crm/internal/geocode"
)

var (
	filterOutput string
	minEmployees int
	maxEmployees int
)

var filterCmd = &cobra.Command{
	Use:   "filter <area.geojson>",
	Short: "Filter the company registry to a geographic area",
	Long: `Filter reads a GeoJSON polygon and finds all registered companies
whose street address geocodes to a point inside it. Draw the polygon on
https://geojson.io and run the registry download first.

The last two lines of output are the area name and the result path, for
script chaining.`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "", "output CSV path (default output/<area>/bedrifter_raa.csv)")
	filterCmd.Flags().IntVar(&minEmployees, "min-employees", 0, "minimum employee count, inclusive (0 = no bound)")
	filterCmd.Flags().IntVar(&maxEmployees, "max-employees", filter.NoEmployeeBound, "maximum employee count, inclusive")
}

var areaNameSanitizer = regexp.MustCompile(`[^\w-]+`)

// areaNameFromPath derives a filesystem-safe area name from the GeoJSON
// file name. Generic names from map tools fall back to "omraade".
func areaNameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.ToLower(strings.Trim(areaNameSanitizer.ReplaceAllString(base, "_"), "_"))
	if name == "" || name == "map" {
		name = "omraade"
	}
	return name
}

func runFilter(cmd *cobra.Command, args []string) error {
	geojsonPath := args[0]

	polygon, err := geo.LoadPolygon(geojsonPath)
	if err != nil {
		return err
	}
	bound := polygon.Bound()
	fmt.Printf("Analyzing area: %s\n", filepath.Base(geojsonPath))
	fmt.Printf("Polygon bounds: (%.4f, %.4f) - (%.4f, %.4f)\n",
		bound.MinLat, bound.MinLon, bound.MaxLat, bound.MaxLon)

	postal, err := geo.LoadPostalTable(filepath.Join(dataDir, brreg.PostalFile), logger)
	if err != nil {
		return fmt.Errorf("loading postal table (run `carpool download` first): %w", err)
	}
	postalCodes := filter.CandidatePostalCodes(polygon, postal)
	fmt.Printf("Postal codes in area: %d\n", len(postalCodes))
	if len(postalCodes) == 0 {
		fmt.Println("No postal codes found in the target area.")
		return nil
	}

	fmt.Println("Loading company registry snapshots...")
	rows, err := brreg.LoadSnapshot(dataDir, postalCodes, logger)
	if err != nil {
		return fmt.Errorf("loading registry snapshots (run `carpool download` first): %w", err)
	}
	fmt.Printf("Combined dataset: %d companies\n", len(rows))

	store, err := cache.New[geocode.Result](filepath.Join(dataDir, "geocode_cache.json"), cache.WithLogger(logger))
	if err != nil {
		return err
	}
	geocoder := geocode.New(store, geocode.WithLogger(logger))

	fmt.Printf("Filtering on employee count (%d <= employees <= %d)...\n", minEmployees, maxEmployees)

	var bar *progressbar.ProgressBar
	opts := filter.Options{
		MinEmployees: minEmployees,
		MaxEmployees: maxEmployees,
		Log:          logger,
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Geocoding"),
					progressbar.OptionSetItsString("addr"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		},
	}

	result, stats, err := filter.Run(cmd.Context(), polygon, rows, geocoder, opts)
	if err != nil {
		return err
	}
	fmt.Printf("  %d companies match the employee criteria\n", stats.Candidates)
	fmt.Printf("Geocoding: %d addresses (%d cache hits, %d API calls)\n",
		stats.Geocoded, stats.CacheHits, stats.Geocoded-stats.CacheHits)

	if err := store.Flush(); err != nil {
		return fmt.Errorf("saving geocode cache: %w", err)
	}
	fmt.Printf("Saved %d geocoding results to cache\n", store.Len())

	if stats.DedupRemoved > 0 {
		fmt.Printf("Deduplicated on address: %d -> %d unique locations\n",
			stats.Inside, len(result))
	}
	if len(result) == 0 {
		fmt.Println("No companies found inside the area.")
		return nil
	}
	fmt.Printf("\nFound %d companies inside the area:\n", len(result))
	fmt.Printf("  - %d primary units\n", stats.PrimaryUnits)
	fmt.Printf("  - %d sub-units (branches)\n", stats.SubUnits)

	outputPath := filterOutput
	areaName := areaNameFromPath(geojsonPath)
	if outputPath == "" {
		outputPath = filepath.Join("output", areaName, "bedrifter_raa.csv")
	} else {
		areaName = strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := company.WriteCSV(outputPath, result, company.FilterColumns); err != nil {
		return err
	}
	fmt.Printf("Results saved to %s\n", outputPath)

	// Area name and path last, for script chaining.
	fmt.Println(areaName)
	fmt.Println(outputPath)
	return nil
}
