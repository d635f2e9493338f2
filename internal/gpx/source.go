// Package gpx decodes recorded activity files into tracks. The rest of
// the pipeline consumes tracks through the Source interface and never
// touches file formats directly.
package gpx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tracklab/trackheat/internal/models"
)

// Source decodes one input file into a track. Implementations exist per
// supported format; DetectSource selects one by inspecting the file.
type Source interface {
	// Name identifies the format, for logging.
	Name() string
	// Decode reads the file and returns its track, or a decode error.
	Decode(path string) (*models.Track, error)
}

// DetectSource picks a decoder for the file, first by extension and then
// by sniffing the leading bytes. Unknown formats are a decode error for
// the file, not a fatal error for the run.
func DetectSource(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		return GPXSource{}, nil
	}

	head := make([]byte, 512)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	n, _ := f.Read(head)
	f.Close()

	if strings.Contains(string(head[:n]), "<gpx") {
		return GPXSource{}, nil
	}
	return nil, fmt.Errorf("unrecognized track format: %s", path)
}

// ScanDir lists candidate track files directly inside dir, in sorted
// order so ingest order (and therefore animation tie-breaking) is
// deterministic across runs.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
