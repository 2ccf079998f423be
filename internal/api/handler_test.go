package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
	"github.com/BillEdwards42/green-moment-BE/internal/store"
)

func newTestApp(t *testing.T) (*fiber.App, *store.SegmentedStore, *store.Logs) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()
	segmented := store.NewSegmentedStore(filepath.Join(dir, "final_data"), logger)
	logs := store.NewLogs(
		filepath.Join(dir, "fluctuation_log.txt"),
		filepath.Join(dir, "unknown_units_log.txt"),
		filepath.Join(dir, "unit_details_log.csv"),
		filepath.Join(dir, "electricity_demand.csv"),
		logger,
	)

	app := fiber.New()
	SetupRoutes(app, NewHandler(segmented, logs, logger), logger)
	return app, segmented, logs
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	return resp.StatusCode, body
}

func seedRows(t *testing.T, segmented *store.SegmentedStore) time.Time {
	t.Helper()
	ts := time.Date(2026, 8, 23, 9, 30, 0, 0, models.Taipei())
	features := models.EmptyFeatureSet()
	features.TempNow = 28.5

	require.NoError(t, segmented.Upsert([]models.AggregatedRow{
		{Timestamp: ts, Region: models.RegionNorth, FuelType: "燃煤(Coal)", NetPower: 3000, Features: features},
		{Timestamp: ts, Region: models.RegionSouth, FuelType: "燃煤(Coal)", NetPower: 1000, Features: models.EmptyFeatureSet()},
		{Timestamp: ts, Region: models.RegionNorth, FuelType: "燃氣(LNG)", NetPower: 4000, Features: features},
	}))
	return ts
}

func TestGetHealth(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, body := getJSON(t, app, "/api/v1/health")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestGetLatestGeneration(t *testing.T) {
	app, segmented, _ := newTestApp(t)
	seedRows(t, segmented)

	status, body := getJSON(t, app, "/api/v1/generation/latest")
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, "2026-08-23 09:30:00", body["timestamp"])
	assert.Equal(t, 8000.0, body["total_mw"])

	mix := body["mix"].([]interface{})
	require.Len(t, mix, 2, "coal rows from both regions collapse into one fuel entry")

	byFuel := make(map[string]map[string]interface{})
	for _, entry := range mix {
		m := entry.(map[string]interface{})
		byFuel[m["fuel_type"].(string)] = m
	}
	assert.Equal(t, 4000.0, byFuel["燃煤(Coal)"]["net_power"])
	assert.Equal(t, 50.0, byFuel["燃煤(Coal)"]["share_pct"])
	assert.Equal(t, 4000.0, byFuel["燃氣(LNG)"]["net_power"])
}

func TestGetLatestGeneration_EmptyStoreIs404(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, _ := getJSON(t, app, "/api/v1/generation/latest")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestGetTable(t *testing.T) {
	app, segmented, _ := newTestApp(t)
	seedRows(t, segmented)

	status, body := getJSON(t, app, "/api/v1/generation/tables/rows?region=North&fuel=燃煤(Coal)")
	require.Equal(t, fiber.StatusOK, status)

	rows := body["rows"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, 3000.0, row["net_power"])
	assert.Equal(t, 28.5, row["temp_now"])
	assert.Nil(t, row["wind_now"], "missing feature renders as null, never zero")
}

func TestGetTable_MissingParamsIs400(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, _ := getJSON(t, app, "/api/v1/generation/tables/rows?region=North")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGetTables(t *testing.T) {
	app, segmented, _ := newTestApp(t)
	seedRows(t, segmented)

	status, body := getJSON(t, app, "/api/v1/generation/tables")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["tables"].([]interface{}), 3)
}

func TestGetLatestUnits(t *testing.T) {
	app, _, logs := newTestApp(t)
	ts := time.Date(2026, 8, 23, 9, 30, 0, 0, models.Taipei())
	require.NoError(t, logs.AppendUnitDetails([]store.UnitDetail{
		{Timestamp: ts.Add(-10 * time.Minute), UnitName: "舊機#1", Region: models.RegionNorth, FuelType: "燃煤(Coal)"},
		{Timestamp: ts, UnitName: "林口#1", Region: models.RegionNorth, FuelType: "燃煤(Coal)"},
		{Timestamp: ts, UnitName: "興達#1", Region: models.RegionSouth, FuelType: "燃煤(Coal)"},
	}))

	status, body := getJSON(t, app, "/api/v1/units/latest")
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, "2026-08-23 09:30:00", body["timestamp"])
	regions := body["regions"].(map[string]interface{})
	require.Len(t, regions, 2, "only the most recent run's units are returned")
	assert.Equal(t, []interface{}{"林口#1"}, regions["North"])
}

func TestUnknownRouteIs404(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, body := getJSON(t, app, "/api/v1/nope")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Endpoint not found", body["error"])
}
