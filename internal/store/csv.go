package store

import (
	"os"
	"strings"
)

// WriteCSV writes a header line plus one line per row, newline-terminated.
// Rows are written verbatim: the trace CSV format is unquoted comma-joined
// text.
func WriteCSV(path string, header string, rows []string) error {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	for _, row := range rows {
		sb.WriteString(row)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
