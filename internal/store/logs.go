package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

var unitDetailHeader = []string{"DATETIME", "UNIT_NAME", "REGION", "FUEL_TYPE"}
var demandHeader = []string{"DATETIME", "DEMAND_MW"}

// UnitDetail is one unit's per-run log row, consumed downstream by
// reporting.
type UnitDetail struct {
	Timestamp time.Time
	UnitName  string
	Region    models.Region
	FuelType  string
}

// Logs owns the append-only operational log files.
type Logs struct {
	fluctuationPath string
	unknownPath     string
	unitDetailPath  string
	demandPath      string
	logger          *zap.Logger
}

func NewLogs(fluctuationPath, unknownPath, unitDetailPath, demandPath string, logger *zap.Logger) *Logs {
	return &Logs{
		fluctuationPath: fluctuationPath,
		unknownPath:     unknownPath,
		unitDetailPath:  unitDetailPath,
		demandPath:      demandPath,
		logger:          logger,
	}
}

// AppendFluctuation writes one human-readable block per run describing the
// unit-set change. The OK marker means the set was stable; DRIFT means
// units appeared or disappeared.
func (l *Logs) AppendFluctuation(timestamp string, total int, added, missing []string) error {
	marker := "OK"
	if len(added) > 0 || len(missing) > 0 {
		marker = "DRIFT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- Fluctuation Report @ %s (%d plants) %s ---\n", timestamp, total, marker)
	if len(added) > 0 {
		fmt.Fprintf(&b, "  [ADDED] %s\n", strings.Join(added, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "  [MISSING] %s\n", strings.Join(missing, ", "))
	}
	return appendText(l.fluctuationPath, b.String())
}

// AppendUnknownUnits records which units fell into the Unknown region this
// run, so the static map can be extended.
func (l *Logs) AppendUnknownUnits(timestamp string, names []string) error {
	var b strings.Builder
	if len(names) == 0 {
		fmt.Fprintf(&b, "[%s] OK No unknown units detected.\n", timestamp)
	} else {
		fmt.Fprintf(&b, "[%s] DRIFT Unknown units detected:\n  %s\n", timestamp, strings.Join(names, ", "))
	}
	return appendText(l.unknownPath, b.String())
}

// AppendUnitDetails appends one CSV row per unit per run.
func (l *Logs) AppendUnitDetails(details []UnitDetail) error {
	f, isNew, err := openAppendCSV(l.unitDetailPath)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if isNew {
		if err := writer.Write(unitDetailHeader); err != nil {
			return eris.Wrap(err, "logs: write unit detail header")
		}
	}
	for _, d := range details {
		record := []string{
			models.FormatTimestamp(d.Timestamp),
			d.UnitName,
			string(d.Region),
			d.FuelType,
		}
		if err := writer.Write(record); err != nil {
			return eris.Wrap(err, "logs: write unit detail row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "logs: flush unit details")
}

// ReadUnitDetails loads the whole unit-detail log.
func (l *Logs) ReadUnitDetails() ([]UnitDetail, error) {
	f, err := os.Open(l.unitDetailPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "logs: open unit details")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "logs: read unit details")
	}

	var details []UnitDetail
	for i, record := range records {
		if i == 0 || len(record) < 4 {
			continue
		}
		ts, err := models.ParseTimestamp(record[0])
		if err != nil {
			continue
		}
		details = append(details, UnitDetail{
			Timestamp: ts,
			UnitName:  record[1],
			Region:    models.Region(record[2]),
			FuelType:  record[3],
		})
	}
	return details, nil
}

// AppendDemand appends one system-load reading.
func (l *Logs) AppendDemand(timestamp string, demandMW float64) error {
	f, isNew, err := openAppendCSV(l.demandPath)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if isNew {
		if err := writer.Write(demandHeader); err != nil {
			return eris.Wrap(err, "logs: write demand header")
		}
	}
	if err := writer.Write([]string{timestamp, strconv.FormatFloat(demandMW, 'f', -1, 64)}); err != nil {
		return eris.Wrap(err, "logs: write demand row")
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "logs: flush demand")
}

func appendText(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrap(err, "logs: open log")
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return eris.Wrap(err, "logs: append log")
	}
	return nil
}

func openAppendCSV(path string) (*os.File, bool, error) {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, eris.Wrap(err, "logs: open csv log")
	}
	return f, isNew, nil
}
