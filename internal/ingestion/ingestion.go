package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/steelworks/opshub/internal/config"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Format is a supported source file format.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatXLSX Format = "XLSX"
)

// SourceConfig locates one source feed. Path may point at a single
// file or at a directory, in which case the most recently modified
// matching file is read.
type SourceConfig struct {
	Path   string
	Format Format
}

// Payload is one source file read into rows.
type Payload struct {
	Source  recorddomain.Source
	Rows    []recorddomain.Row
	File    string
	ModTime time.Time
}

// Reader loads raw rows for a source.
type Reader interface {
	Read(ctx context.Context, source recorddomain.Source) (*Payload, error)
}

// FileReader reads CSV and XLSX drops from the configured directories.
type FileReader struct {
	log     *zap.Logger
	sources map[recorddomain.Source]SourceConfig
}

// SourcesFromConfig maps the application config onto per-source feeds.
func SourcesFromConfig(cfg config.Config) map[recorddomain.Source]SourceConfig {
	return map[recorddomain.Source]SourceConfig{
		recorddomain.SourceProduction: {Path: cfg.ProductionLogPath, Format: Format(strings.ToUpper(cfg.ProductionLogFormat))},
		recorddomain.SourceQuality:    {Path: cfg.QualityLogPath, Format: Format(strings.ToUpper(cfg.QualityLogFormat))},
		recorddomain.SourceShipping:   {Path: cfg.ShippingLogPath, Format: Format(strings.ToUpper(cfg.ShippingLogFormat))},
	}
}

func New(log *zap.Logger, sources map[recorddomain.Source]SourceConfig) *FileReader {
	return &FileReader{
		log:     log.Named("ingestion"),
		sources: sources,
	}
}

// Read loads the latest drop for the source. Row keys are the header
// cells lowercased and trimmed; short rows are padded with empty
// values.
func (r *FileReader) Read(ctx context.Context, source recorddomain.Source) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, ok := r.sources[source]
	if !ok {
		return nil, fmt.Errorf("ingestion: source %s is not configured", source)
	}

	path, modTime, err := resolveFile(cfg)
	if err != nil {
		return nil, fmt.Errorf("ingestion: resolve %s feed: %w", source, err)
	}

	var rows []recorddomain.Row
	switch cfg.Format {
	case FormatCSV:
		rows, err = readCSV(path)
	case FormatXLSX:
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("ingestion: unsupported format %q for source %s", cfg.Format, source)
	}
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s feed %s: %w", source, path, err)
	}

	r.log.Info("source file read",
		zap.String("source", string(source)),
		zap.String("file", path),
		zap.Int("rows", len(rows)),
	)
	return &Payload{
		Source:  source,
		Rows:    rows,
		File:    path,
		ModTime: modTime,
	}, nil
}

// resolveFile returns the file to read for a source config. For a
// directory, the most recently modified file with the expected
// extension wins.
func resolveFile(cfg SourceConfig) (string, time.Time, error) {
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return "", time.Time{}, err
	}
	if !info.IsDir() {
		return cfg.Path, info.ModTime(), nil
	}

	ext := "." + strings.ToLower(string(cfg.Format))
	entries, err := os.ReadDir(cfg.Path)
	if err != nil {
		return "", time.Time{}, err
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		entryInfo, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(cfg.Path, entry.Name()),
			modTime: entryInfo.ModTime(),
		})
	}
	if len(candidates) == 0 {
		return "", time.Time{}, fmt.Errorf("no %s file in %s", ext, cfg.Path)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})
	return candidates[0].path, candidates[0].modTime, nil
}

func readCSV(path string) ([]recorddomain.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rowsFromCells(records), nil
}

func readXLSX(path string) ([]recorddomain.Row, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	cells, err := file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return rowsFromCells(cells), nil
}

func rowsFromCells(cells [][]string) []recorddomain.Row {
	if len(cells) == 0 {
		return nil
	}

	header := make([]string, len(cells[0]))
	for i, cell := range cells[0] {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	rows := make([]recorddomain.Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		row := make(recorddomain.Row, len(header))
		for i, field := range header {
			if field == "" {
				continue
			}
			if i < len(line) {
				row[field] = line[i]
			} else {
				row[field] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
