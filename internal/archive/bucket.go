package archive

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	filePrefix = "procstat_"
	fileLayout = "2006-01-02T15-04"
)

// Truncate rounds t down to a multiple of interval counted from the Unix epoch, in UTC.
// Exact boundaries are returned unchanged.
func Truncate(t time.Time, interval time.Duration) time.Time {
	t = t.UTC()
	if interval <= 0 {
		return t
	}
	ns := t.UnixNano()
	rem := ns % int64(interval)
	if rem < 0 {
		rem += int64(interval)
	}
	return time.Unix(0, ns-rem).UTC()
}

// FileName is the archive name for the bucket ending at high, e.g. procstat_2024-03-01T12-20.
func FileName(high time.Time) string {
	return filePrefix + high.UTC().Format(fileLayout)
}

// ParseFileName recovers the bucket high time from an archive path.
func ParseFileName(path string) (time.Time, error) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, filePrefix) {
		return time.Time{}, fmt.Errorf("archive name %q: missing %q prefix", base, filePrefix)
	}
	t, err := time.ParseInLocation(fileLayout, strings.TrimPrefix(base, filePrefix), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("archive name %q: %w", base, err)
	}
	return t, nil
}
