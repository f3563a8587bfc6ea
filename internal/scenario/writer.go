// internal/scenario/writer.go
package scenario

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
)

// Writer persists generated feature files into one flat output directory.
// Filenames carry the source host and a timestamp so repeated runs never
// overwrite each other.
type Writer struct {
	dir string
	log *zap.Logger
}

// NewWriter builds a writer rooted at dir, creating it if needed.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &Writer{dir: dir, log: logger.Named("writer")}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write stores content as a new feature file for sourceURL and returns the
// filename (not the full path).
func (w *Writer) Write(sourceURL, content string) (string, error) {
	name := fmt.Sprintf("%s_%s.feature", slugFromURL(sourceURL), time.Now().Format("20060102_150405"))
	header := fmt.Sprintf("# Generated from %s on %s\n\n", sourceURL, time.Now().Format(time.RFC3339))

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(header+strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write feature file: %w", err)
	}
	w.log.Info("Feature file written.", zap.String("file", name))
	return name, nil
}

// List returns the generated feature files, newest first.
func (w *Writer) List() ([]schemas.FeatureFileInfo, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var files []schemas.FeatureFileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".feature") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, schemas.FeatureFileInfo{
			Filename: entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Format(time.RFC3339),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Modified > files[j].Modified })
	return files, nil
}

// Path resolves filename inside the output directory, rejecting anything that
// would escape it.
func (w *Writer) Path(filename string) (string, error) {
	if filename != filepath.Base(filename) || filename == "." || filename == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	if !strings.HasSuffix(filename, ".feature") {
		return "", fmt.Errorf("not a feature file: %q", filename)
	}
	path := filepath.Join(w.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("feature file not found: %w", err)
	}
	return path, nil
}

// slugFromURL derives a filesystem-safe name from the page's host, falling
// back to "page" for unparseable input.
func slugFromURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	host := ""
	if err == nil {
		host = parsed.Hostname()
	}
	if host == "" {
		host = "page"
	}
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
