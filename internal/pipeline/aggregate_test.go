package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

var aggTime = time.Date(2026, 8, 23, 9, 30, 0, 0, models.Taipei())

func resolvedRecord(unit string, region models.Region, fuel string, power float64, features models.FeatureSet) models.ResolvedRecord {
	return models.ResolvedRecord{
		GenerationRecord: models.GenerationRecord{
			Timestamp: aggTime,
			UnitName:  unit,
			FuelType:  fuel,
			NetPower:  power,
		},
		Region:   region,
		Features: features,
	}
}

func TestAggregate_GroupsAndSums(t *testing.T) {
	features := models.EmptyFeatureSet()
	features.TempNow = 27.5

	records := []models.ResolvedRecord{
		resolvedRecord("林口#1", models.RegionNorth, "燃煤(Coal)", 500, features),
		resolvedRecord("林口#2", models.RegionNorth, "燃煤(Coal)", 600, features),
		resolvedRecord("大潭#1", models.RegionNorth, "燃氣(LNG)", 700, features),
		resolvedRecord("興達#1", models.RegionSouth, "燃煤(Coal)", 800, models.EmptyFeatureSet()),
	}

	rows := Aggregate(records, zap.NewNop())
	require.Len(t, rows, 3)

	byKey := make(map[string]models.AggregatedRow)
	for _, row := range rows {
		byKey[string(row.Region)+"/"+row.FuelType] = row
	}

	assert.Equal(t, 1100.0, byKey["North/燃煤(Coal)"].NetPower)
	assert.Equal(t, 700.0, byKey["North/燃氣(LNG)"].NetPower)
	assert.Equal(t, 800.0, byKey["South/燃煤(Coal)"].NetPower)

	assert.Equal(t, 27.5, byKey["North/燃煤(Coal)"].Features.TempNow)
	assert.True(t, math.IsNaN(byKey["South/燃煤(Coal)"].Features.TempNow))
}

func TestAggregate_ConservesTotalPower(t *testing.T) {
	records := []models.ResolvedRecord{
		resolvedRecord("a", models.RegionNorth, "燃煤(Coal)", 123.4, models.EmptyFeatureSet()),
		resolvedRecord("b", models.RegionNorth, "燃煤(Coal)", -5.5, models.EmptyFeatureSet()),
		resolvedRecord("c", models.RegionCentral, "水力(Hydro)", 88.8, models.EmptyFeatureSet()),
		resolvedRecord("d", models.RegionUnknown, "太陽能(Solar)", 42.0, models.EmptyFeatureSet()),
	}

	input := 0.0
	for _, r := range records {
		input += r.NetPower
	}

	output := 0.0
	for _, row := range Aggregate(records, zap.NewNop()) {
		output += row.NetPower
	}
	assert.InDelta(t, input, output, 1e-9)
}

func TestAggregate_FirstFeatureSetCarries(t *testing.T) {
	first := models.EmptyFeatureSet()
	first.TempNow = 20
	second := models.EmptyFeatureSet()
	second.TempNow = 99

	records := []models.ResolvedRecord{
		resolvedRecord("a", models.RegionNorth, "燃煤(Coal)", 1, first),
		resolvedRecord("b", models.RegionNorth, "燃煤(Coal)", 1, second),
	}

	rows := Aggregate(records, zap.NewNop())
	require.Len(t, rows, 1)
	assert.Equal(t, 20.0, rows[0].Features.TempNow)
}

func TestAggregate_DeterministicOrder(t *testing.T) {
	records := []models.ResolvedRecord{
		resolvedRecord("c", models.RegionSouth, "燃煤(Coal)", 1, models.EmptyFeatureSet()),
		resolvedRecord("a", models.RegionNorth, "燃氣(LNG)", 1, models.EmptyFeatureSet()),
		resolvedRecord("b", models.RegionNorth, "燃煤(Coal)", 1, models.EmptyFeatureSet()),
	}

	rows := Aggregate(records, zap.NewNop())
	require.Len(t, rows, 3)
	// Region first, then fuel label byte order: 燃氣 sorts before 燃煤.
	assert.Equal(t, models.RegionNorth, rows[0].Region)
	assert.Equal(t, "燃氣(LNG)", rows[0].FuelType)
	assert.Equal(t, models.RegionNorth, rows[1].Region)
	assert.Equal(t, "燃煤(Coal)", rows[1].FuelType)
	assert.Equal(t, models.RegionSouth, rows[2].Region)
}
