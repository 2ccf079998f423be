package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

var plainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseFeed extracts per-unit generation records from the raw Taipower
// genary document. The top-level rows array is required; a document without
// it is malformed and fails the run. Individual rows degrade instead:
// subtotal rows, rows without a bolded fuel label, load rows, and rows with
// an unparsable power value are skipped.
func ParseFeed(data []byte, effective time.Time) ([]models.GenerationRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("feed: invalid JSON document")
	}
	rows := gjson.GetBytes(data, "aaData")
	if !rows.Exists() || !rows.IsArray() {
		return nil, eris.New("feed: no aaData rows in document")
	}

	var records []models.GenerationRecord
	for _, row := range rows.Array() {
		cells := row.Array()
		if len(cells) < 5 {
			continue
		}

		unitName := strings.TrimSpace(cells[2].String())
		if unitName == "" || strings.Contains(unitName, "小計") {
			continue
		}

		fuelCode := boldLabel(cells[0].String())
		if fuelCode == "" || strings.Contains(fuelCode, "Load") {
			continue
		}

		power, ok := parsePower(cells[4].String())
		if !ok {
			continue
		}

		records = append(records, models.GenerationRecord{
			Timestamp: effective,
			UnitName:  unitName,
			FuelType:  models.FuelLabel(fuelCode),
			NetPower:  power,
		})
	}
	return records, nil
}

// ParseDemand extracts the current system load (MW) from the loadpara
// document.
func ParseDemand(data []byte) (float64, error) {
	load := gjson.GetBytes(data, "records.0.curr_load")
	if !load.Exists() {
		return 0, eris.New("demand: no curr_load in records")
	}
	v, ok := parsePower(load.String())
	if !ok {
		return 0, eris.Errorf("demand: unparsable curr_load %q", load.String())
	}
	return v, nil
}

// boldLabel extracts the text of the first <b> element embedded in a cell.
func boldLabel(cell string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cell))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("b").First().Text())
}

// parsePower parses a numeric string, tolerating comma thousands separators.
func parsePower(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if !plainNumber.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
