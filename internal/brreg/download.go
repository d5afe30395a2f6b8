package brreg

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// snapshotSource is one downloadable data file.
type snapshotSource struct {
	URL  string
	Name string
}

// snapshotSources lists the registry dumps and the postal-code coordinate
// table needed by the filter stage.
var snapshotSources = []snapshotSource{
	{URL: "https://data.brreg.no/enhetsregisteret/api/enheter/lastned/csv", Name: UnitsFile},
	{URL: "https://data.brreg.no/enhetsregisteret/api/underenheter/lastned/csv", Name: SubUnitsFile},
	{URL: "https://www.erikbolstad.no/postnummer-koordinatar/txt/postnummer.txt", Name: PostalFile},
}

var downloadClient = &http.Client{Timeout: 30 * time.Minute}

// DownloadSnapshots fetches any missing data files into dataDir. Existing
// files are left alone; delete them to force a refresh.
func DownloadSnapshots(dataDir string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	for _, src := range snapshotSources {
		path := filepath.Join(dataDir, src.Name)
		if _, err := os.Stat(path); err == nil {
			log.Info("snapshot already present", zap.String("file", src.Name))
			continue
		}
		log.Info("downloading snapshot", zap.String("file", src.Name), zap.String("url", src.URL))
		if err := downloadFile(src.URL, path); err != nil {
			return fmt.Errorf("downloading %s: %w", src.Name, err)
		}
	}
	return nil
}

func downloadFile(url, path string) error {
	resp, err := downloadClient.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}

	// Remove partial files on failure so a half-written dump never gets
	// picked up by a later run.
	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(path)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	success = true
	return nil
}
