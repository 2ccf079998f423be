// Package store is the pipeline's persistence substrate: segmented CSV
// tables, the run-state file, and the append-only operational logs.
package store

import (
	"encoding/csv"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

var tableHeader = []string{
	"DATETIME", "REGION", "FUEL_TYPE", "NET_P",
	"TEMP_now", "WIND_now", "W_CODE_now",
	"TEMP_future_12h", "WIND_future_12h", "W_CODE_future_12h",
}

var (
	parenthesized = regexp.MustCompile(`\(.*\)`)
	hostileChars  = regexp.MustCompile(`[\\/*?:"<>|]`)
)

// SanitizeName makes a region or fuel label safe for use in file names:
// parenthesized text is dropped, filesystem-hostile characters replaced.
func SanitizeName(name string) string {
	return strings.TrimSpace(hostileChars.ReplaceAllString(parenthesized.ReplaceAllString(name, ""), "_"))
}

// TableRef identifies one persisted (region, fuel) table.
type TableRef struct {
	Region string `json:"region"`
	Name   string `json:"name"`
	Path   string `json:"path"`
}

// SegmentedStore persists aggregated rows into one CSV table per
// (region, fuel type) under <dir>/<region>/<region>_<fuel>.csv. Each table
// is a clean time series for its pair, keyed by timestamp.
type SegmentedStore struct {
	dir    string
	logger *zap.Logger
}

func NewSegmentedStore(dir string, logger *zap.Logger) *SegmentedStore {
	return &SegmentedStore{dir: dir, logger: logger}
}

// Upsert writes rows into their tables. An existing row with the same
// timestamp is replaced, not duplicated, so re-running the pipeline for the
// same effective time is idempotent.
func (s *SegmentedStore) Upsert(rows []models.AggregatedRow) error {
	byTable := make(map[string][]models.AggregatedRow)
	var order []string
	for _, row := range rows {
		path := s.tablePath(string(row.Region), row.FuelType)
		if _, ok := byTable[path]; !ok {
			order = append(order, path)
		}
		byTable[path] = append(byTable[path], row)
	}

	for _, path := range order {
		if err := s.upsertTable(path, byTable[path]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SegmentedStore) upsertTable(path string, rows []models.AggregatedRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "store: create table directory")
	}

	incoming := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		incoming[models.FormatTimestamp(row.Timestamp)] = struct{}{}
	}

	existing, err := readTableFile(path)
	if err != nil {
		return err
	}

	kept := existing[:0]
	for _, row := range existing {
		if _, replaced := incoming[models.FormatTimestamp(row.Timestamp)]; !replaced {
			kept = append(kept, row)
		}
	}
	kept = append(kept, rows...)

	if err := writeTableFile(path, kept); err != nil {
		return err
	}
	s.logger.Debug("Table updated",
		zap.String("path", path),
		zap.Int("rows", len(kept)))
	return nil
}

func (s *SegmentedStore) tablePath(region, fuel string) string {
	regionSafe := SanitizeName(region)
	fuelSafe := SanitizeName(fuel)
	return filepath.Join(s.dir, regionSafe, regionSafe+"_"+fuelSafe+".csv")
}

// ReadTable returns the persisted rows of one (region, fuel) table in file
// order.
func (s *SegmentedStore) ReadTable(region, fuel string) ([]models.AggregatedRow, error) {
	return readTableFile(s.tablePath(region, fuel))
}

// Tables lists every persisted table.
func (s *SegmentedStore) Tables() ([]TableRef, error) {
	var tables []TableRef
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".csv") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		tables = append(tables, TableRef{
			Region: filepath.Base(filepath.Dir(path)),
			Name:   strings.TrimSuffix(d.Name(), ".csv"),
			Path:   rel,
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: list tables")
	}
	return tables, nil
}

// Latest returns all rows carrying the most recent timestamp found across
// every table.
func (s *SegmentedStore) Latest() ([]models.AggregatedRow, error) {
	tables, err := s.Tables()
	if err != nil {
		return nil, err
	}

	var all []models.AggregatedRow
	for _, table := range tables {
		rows, err := readTableFile(filepath.Join(s.dir, table.Path))
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	if len(all) == 0 {
		return nil, nil
	}

	latest := all[0].Timestamp
	for _, row := range all[1:] {
		if row.Timestamp.After(latest) {
			latest = row.Timestamp
		}
	}

	var rows []models.AggregatedRow
	for _, row := range all {
		if row.Timestamp.Equal(latest) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func readTableFile(path string) ([]models.AggregatedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: open table")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "store: read table")
	}

	var rows []models.AggregatedRow
	for i, record := range records {
		if i == 0 || len(record) < len(tableHeader) {
			continue
		}
		ts, err := models.ParseTimestamp(record[0])
		if err != nil {
			continue
		}
		power, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			continue
		}
		rows = append(rows, models.AggregatedRow{
			Timestamp: ts,
			Region:    models.Region(record[1]),
			FuelType:  record[2],
			NetPower:  power,
			Features: models.FeatureSet{
				TempNow:       parseCell(record[4]),
				WindNow:       parseCell(record[5]),
				CodeNow:       parseCell(record[6]),
				TempFuture12h: parseCell(record[7]),
				WindFuture12h: parseCell(record[8]),
				CodeFuture12h: parseCell(record[9]),
			},
		})
	}
	return rows, nil
}

func writeTableFile(path string, rows []models.AggregatedRow) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrap(err, "store: create table")
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(tableHeader); err != nil {
		f.Close()
		return eris.Wrap(err, "store: write table header")
	}
	for _, row := range rows {
		record := []string{
			models.FormatTimestamp(row.Timestamp),
			string(row.Region),
			row.FuelType,
			formatCell(row.NetPower),
			formatCell(row.Features.TempNow),
			formatCell(row.Features.WindNow),
			formatCell(row.Features.CodeNow),
			formatCell(row.Features.TempFuture12h),
			formatCell(row.Features.WindFuture12h),
			formatCell(row.Features.CodeFuture12h),
		}
		if err := writer.Write(record); err != nil {
			f.Close()
			return eris.Wrap(err, "store: write table row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return eris.Wrap(err, "store: flush table")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "store: close table")
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrap(err, "store: replace table")
	}
	return nil
}

// formatCell renders a float for CSV; a missing value becomes an empty
// cell.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseCell reads a CSV float cell; an empty cell is missing.
func parseCell(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
