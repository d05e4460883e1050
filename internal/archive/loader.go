package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"procstat-agent/internal/history"
	"procstat-agent/internal/model"
	"procstat-agent/internal/telemetry"
)

// ErrIncompleteArchive is wrapped by a DecodeError when domain arrays are absent.
var ErrIncompleteArchive = errors.New("archive is missing domain arrays")

// DecodeError means an archive file exists but its content is not a valid archive.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode archive %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ReadFile decodes one archive. A missing file yields an error matching fs.ErrNotExist.
func ReadFile(path string) (model.ArchiveTransit, error) {
	var t model.ArchiveTransit
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read archive %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return model.ArchiveTransit{}, &DecodeError{Path: path, Err: err}
	}
	if missing := t.MissingDomains(); len(missing) > 0 {
		return model.ArchiveTransit{}, &DecodeError{Path: path, Err: fmt.Errorf("%w: %v", ErrIncompleteArchive, missing)}
	}
	return t, nil
}

type FileStatus string

const (
	FileLoaded  FileStatus = "loaded"
	FileMissing FileStatus = "missing"
)

type FileResult struct {
	Path    string
	Status  FileStatus
	Records int
}

// Loader replays archive files into a history store.
type Loader struct {
	logger  *slog.Logger
	store   *history.Store
	metrics *telemetry.Metrics
}

func NewLoader(logger *slog.Logger, store *history.Store, metrics *telemetry.Metrics) *Loader {
	return &Loader{logger: logger, store: store, metrics: metrics}
}

// Load processes paths in order. Missing files are reported and skipped; any other
// failure stops the load and is returned. onFile may be nil.
func (l *Loader) Load(paths []string, onFile func(FileResult)) error {
	for _, path := range paths {
		transit, err := ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				l.logger.Warn("archive not found, skipping", "path", path)
				l.metrics.FileLoaded(string(FileMissing))
				if onFile != nil {
					onFile(FileResult{Path: path, Status: FileMissing})
				}
				continue
			}
			l.metrics.FileLoaded("failed")
			return err
		}

		l.store.Restore(transit)
		records := transit.Len()
		l.logger.Info("archive loaded", "path", path, "records", records)
		l.metrics.FileLoaded(string(FileLoaded))
		if onFile != nil {
			onFile(FileResult{Path: path, Status: FileLoaded, Records: records})
		}
	}
	return nil
}

type dirEntry struct {
	path string
	high int64
}

// ListDir returns the archive files in dir ordered by bucket high time. Temporary files
// and names that do not parse are ignored.
func ListDir(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"))
	if err != nil {
		return nil, fmt.Errorf("list archives in %s: %w", dir, err)
	}
	entries := make([]dirEntry, 0, len(matches))
	for _, m := range matches {
		high, parseErr := ParseFileName(m)
		if parseErr != nil {
			continue
		}
		entries = append(entries, dirEntry{path: m, high: high.Unix()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].high < entries[j].high })

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.path)
	}
	return out, nil
}
