package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// WriteQueueCSV writes a local queue export with the given header and rows
// and returns its path.
func WriteQueueCSV(t testing.TB, dir string, header []string, rows ...[]string) string {
	t.Helper()

	path := filepath.Join(dir, "queue.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}
