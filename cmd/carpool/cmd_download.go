package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johanhal/carpool-crm/internal/brreg"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download registry snapshots and the postal code table",
	Long: `Download fetches the full company registry snapshots (primary units
and sub-units) plus the postal code table into the data directory.
Files already present are kept; delete them to force a refresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Downloading registry data to %s/\n", dataDir)
		if err := brreg.DownloadSnapshots(dataDir, logger); err != nil {
			return err
		}
		fmt.Println("Done. Run `carpool filter <area.geojson>` next.")
		return nil
	},
}
