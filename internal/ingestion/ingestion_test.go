package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	recorddomain "github.com/steelworks/opshub/internal/record/domain"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestReadCSVMapsHeaderToRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "production.csv",
		"Lot_Code,Production_Date,Units_Actual\n0042,2024-03-05,95\n43,2024-03-06,\n",
		time.Now())

	reader := New(zap.NewNop(), map[recorddomain.Source]SourceConfig{
		recorddomain.SourceProduction: {Path: dir, Format: FormatCSV},
	})

	payload, err := reader.Read(context.Background(), recorddomain.SourceProduction)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(payload.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(payload.Rows))
	}
	if payload.Rows[0]["lot_code"] != "0042" {
		t.Fatalf("header not lowercased: %+v", payload.Rows[0])
	}
	if payload.Rows[1]["units_actual"] != "" {
		t.Fatalf("short cell should be empty, got %q", payload.Rows[1]["units_actual"])
	}
}

func TestReadPicksMostRecentFileInDirectory(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, dir, "old.csv", "lot_code\n1\n", base)
	writeFile(t, dir, "new.csv", "lot_code\n2\n", base.Add(30*time.Minute))
	writeFile(t, dir, "ignored.txt", "lot_code\n3\n", base.Add(45*time.Minute))

	reader := New(zap.NewNop(), map[recorddomain.Source]SourceConfig{
		recorddomain.SourceProduction: {Path: dir, Format: FormatCSV},
	})

	payload, err := reader.Read(context.Background(), recorddomain.SourceProduction)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if filepath.Base(payload.File) != "new.csv" {
		t.Fatalf("expected newest csv, got %s", payload.File)
	}
	if payload.Rows[0]["lot_code"] != "2" {
		t.Fatalf("wrong file content: %+v", payload.Rows[0])
	}
}

func TestReadMissingFeedFails(t *testing.T) {
	reader := New(zap.NewNop(), map[recorddomain.Source]SourceConfig{
		recorddomain.SourceProduction: {Path: filepath.Join(t.TempDir(), "nope"), Format: FormatCSV},
	})

	if _, err := reader.Read(context.Background(), recorddomain.SourceProduction); err == nil {
		t.Fatal("expected error for missing path")
	}
	if _, err := reader.Read(context.Background(), recorddomain.SourceQuality); err == nil {
		t.Fatal("expected error for unconfigured source")
	}
}

func TestReadEmptyDirectoryFails(t *testing.T) {
	reader := New(zap.NewNop(), map[recorddomain.Source]SourceConfig{
		recorddomain.SourceProduction: {Path: t.TempDir(), Format: FormatCSV},
	})

	if _, err := reader.Read(context.Background(), recorddomain.SourceProduction); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
