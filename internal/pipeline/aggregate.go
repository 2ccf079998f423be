package pipeline

import (
	"sort"

	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

type groupKey struct {
	timestamp string
	region    models.Region
	fuelType  string
}

// Aggregate groups resolved records by (timestamp, region, fuel type),
// summing net power and carrying the first record's weather features. All
// records in a group share the same (timestamp, region), so their features
// must be identical; a mismatch means the grouping no longer determines
// enrichment and is logged loudly rather than silently picked over.
func Aggregate(records []models.ResolvedRecord, logger *zap.Logger) []models.AggregatedRow {
	groups := make(map[groupKey]*models.AggregatedRow)
	var order []groupKey

	for _, r := range records {
		key := groupKey{
			timestamp: models.FormatTimestamp(r.Timestamp),
			region:    r.Region,
			fuelType:  r.FuelType,
		}
		row, ok := groups[key]
		if !ok {
			groups[key] = &models.AggregatedRow{
				Timestamp: r.Timestamp,
				Region:    r.Region,
				FuelType:  r.FuelType,
				NetPower:  r.NetPower,
				Features:  r.Features,
			}
			order = append(order, key)
			continue
		}
		row.NetPower += r.NetPower
		if !row.Features.Equal(r.Features) {
			logger.Warn("Non-uniform weather features within aggregation group",
				zap.String("timestamp", key.timestamp),
				zap.String("region", string(key.region)),
				zap.String("fuel_type", key.fuelType),
				zap.String("unit", r.UnitName))
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.timestamp != b.timestamp {
			return a.timestamp < b.timestamp
		}
		if a.region != b.region {
			return a.region < b.region
		}
		return a.fuelType < b.fuelType
	})

	rows := make([]models.AggregatedRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *groups[key])
	}
	return rows
}
