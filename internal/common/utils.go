package common

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates the directory, parents included, if it is absent.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// ReadCsvFile reads every row of a CSV file.
func ReadCsvFile(filePath string) ([][]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// StripExtension returns the base name of path with everything from the
// first dot removed, the normalization dump names go through.
func StripExtension(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

// ReplaceExtension swaps the final extension of path with ext (dot
// included), appending when path has none.
func ReplaceExtension(path string, ext string) string {
	old := filepath.Ext(path)
	if old == "" {
		return path + ext
	}
	return strings.TrimSuffix(path, old) + ext
}
