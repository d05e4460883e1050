package archive

import (
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"
	jsoniter "github.com/json-iterator/go"

	"procstat-agent/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteError is returned when an archive file could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write archive %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func encode(t model.ArchiveTransit) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// writeAtomic stages data under a hidden temporary name in the target directory, syncs
// it and renames it into place.
func writeAtomic(path string, data []byte) error {
	return renameio.WriteFile(path, data, 0o644, renameio.WithTempDir(filepath.Dir(path)))
}
