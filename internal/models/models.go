package models

import (
	"math"
	"time"
)

// Region is one of the fixed geographic buckets used to group both
// generation and weather data.
type Region string

const (
	RegionNorth   Region = "North"
	RegionCentral Region = "Central"
	RegionSouth   Region = "South"
	RegionEast    Region = "East"
	RegionIslands Region = "Islands"
	RegionOther   Region = "Other"
	RegionUnknown Region = "Unknown"
)

// GenerationRecord is one generator unit's output at one effective timestamp.
// Records are discarded after aggregation; only the unit-detail log keeps
// the per-unit view.
type GenerationRecord struct {
	Timestamp time.Time
	UnitName  string
	FuelType  string
	NetPower  float64 // MW
}

// ResolvedRecord is a GenerationRecord with its region assignment and the
// region's weather features joined on.
type ResolvedRecord struct {
	GenerationRecord
	Region   Region
	Features FeatureSet
}

// FeatureSet holds the weather features for one (region, run). NaN marks a
// missing value; a missing value is never coerced to zero.
type FeatureSet struct {
	TempNow       float64
	WindNow       float64
	CodeNow       float64
	TempFuture12h float64
	WindFuture12h float64
	CodeFuture12h float64
}

// EmptyFeatureSet returns a FeatureSet with every field missing.
func EmptyFeatureSet() FeatureSet {
	nan := math.NaN()
	return FeatureSet{
		TempNow:       nan,
		WindNow:       nan,
		CodeNow:       nan,
		TempFuture12h: nan,
		WindFuture12h: nan,
		CodeFuture12h: nan,
	}
}

// Equal compares two feature sets treating NaN==NaN as equal.
func (f FeatureSet) Equal(other FeatureSet) bool {
	return sameValue(f.TempNow, other.TempNow) &&
		sameValue(f.WindNow, other.WindNow) &&
		sameValue(f.CodeNow, other.CodeNow) &&
		sameValue(f.TempFuture12h, other.TempFuture12h) &&
		sameValue(f.WindFuture12h, other.WindFuture12h) &&
		sameValue(f.CodeFuture12h, other.CodeFuture12h)
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

// AggregatedRow is the unit of persistence: one row per
// (timestamp, region, fuel type) per run.
type AggregatedRow struct {
	Timestamp time.Time
	Region    Region
	FuelType  string
	NetPower  float64 // sum over all units in the group
	Features  FeatureSet
}

// fuelLabels maps the feed's native short codes to canonical bilingual
// labels. Unlisted codes pass through unchanged.
var fuelLabels = map[string]string{
	"太陽能":     "太陽能(Solar)",
	"風力":      "風力(Wind)",
	"燃煤":      "燃煤(Coal)",
	"燃氣":      "燃氣(LNG)",
	"水力":      "水力(Hydro)",
	"核能":      "核能(Nuclear)",
	"汽電共生":    "汽電共生(Co-Gen)",
	"民營電廠-燃煤": "民營電廠-燃煤(IPP-Coal)",
	"民營電廠-燃氣": "民營電廠-燃氣(IPP-LNG)",
	"燃油":      "燃油(Oil)",
	"輕油":      "輕油(Diesel)",
	"其它再生能源":  "其它再生能源(Other Renewable Energy)",
	"儲能":      "儲能(Energy Storage System)",
}

// FuelLabel maps a native fuel short code to its bilingual label.
func FuelLabel(code string) string {
	if label, ok := fuelLabels[code]; ok {
		return label
	}
	return code
}

// TimestampLayout is the wire and persistence format for all timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

var taipei = loadTaipei()

func loadTaipei() *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// Taipei returns the pipeline's operating timezone.
func Taipei() *time.Location {
	return taipei
}

// EffectiveTime floors t to the nearest 10-minute boundary in the Taipei
// timezone. It is the run's logical time and the persistence key,
// independent of wall-clock jitter.
func EffectiveTime(t time.Time) time.Time {
	t = t.In(taipei)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()/10*10, 0, 0, taipei)
}

// FormatTimestamp renders t in the persistence format.
func FormatTimestamp(t time.Time) string {
	return t.In(taipei).Format(TimestampLayout)
}

// ParseTimestamp parses a persisted timestamp back into Taipei time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, taipei)
}
