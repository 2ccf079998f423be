package api

import (
	"math"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
	"github.com/BillEdwards42/green-moment-BE/internal/store"
)

// Handler serves read-only views over the pipeline's persisted tables and
// the unit-detail log. It never writes; the pipeline binary owns all
// writes.
type Handler struct {
	segmented *store.SegmentedStore
	logs      *store.Logs
	logger    *zap.Logger
}

func NewHandler(segmented *store.SegmentedStore, logs *store.Logs, logger *zap.Logger) *Handler {
	return &Handler{
		segmented: segmented,
		logs:      logs,
		logger:    logger,
	}
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
	})
}

// GetLatestGeneration handles GET /api/v1/generation/latest: the current
// generation mix at the most recent persisted timestamp, summed per fuel
// type.
func (h *Handler) GetLatestGeneration(c *fiber.Ctx) error {
	rows, err := h.segmented.Latest()
	if err != nil {
		h.logger.Error("Failed to read latest generation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read persisted tables",
		})
	}
	if len(rows) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No generation data persisted yet",
		})
	}

	fuelSums := make(map[string]float64)
	total := 0.0
	for _, row := range rows {
		fuelSums[row.FuelType] += row.NetPower
		total += row.NetPower
	}

	fuels := make([]string, 0, len(fuelSums))
	for fuel := range fuelSums {
		fuels = append(fuels, fuel)
	}
	sort.Strings(fuels)

	mix := make([]fiber.Map, 0, len(fuels))
	for _, fuel := range fuels {
		mix = append(mix, fiber.Map{
			"fuel_type": fuel,
			"net_power": fuelSums[fuel],
			"share_pct": sharePct(fuelSums[fuel], total),
		})
	}

	return c.JSON(fiber.Map{
		"timestamp": models.FormatTimestamp(rows[0].Timestamp),
		"total_mw":  total,
		"mix":       mix,
	})
}

// GetTables handles GET /api/v1/generation/tables
func (h *Handler) GetTables(c *fiber.Ctx) error {
	tables, err := h.segmented.Tables()
	if err != nil {
		h.logger.Error("Failed to list tables", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list persisted tables",
		})
	}
	return c.JSON(fiber.Map{"tables": tables})
}

// GetTable handles GET /api/v1/generation/tables/rows?region=...&fuel=...
func (h *Handler) GetTable(c *fiber.Ctx) error {
	region := c.Query("region")
	fuel := c.Query("fuel")
	if region == "" || fuel == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "region and fuel parameters are required",
		})
	}

	rows, err := h.segmented.ReadTable(region, fuel)
	if err != nil {
		h.logger.Error("Failed to read table",
			zap.String("region", region),
			zap.String("fuel", fuel),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read table",
		})
	}
	if len(rows) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No such table or table is empty",
		})
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowJSON(row))
	}
	return c.JSON(fiber.Map{
		"region": region,
		"fuel":   fuel,
		"rows":   out,
	})
}

// GetLatestUnits handles GET /api/v1/units/latest: the units seen at the
// most recent run, grouped by region.
func (h *Handler) GetLatestUnits(c *fiber.Ctx) error {
	details, err := h.logs.ReadUnitDetails()
	if err != nil {
		h.logger.Error("Failed to read unit details", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read unit detail log",
		})
	}
	if len(details) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No unit details recorded yet",
		})
	}

	latest := details[0].Timestamp
	for _, d := range details[1:] {
		if d.Timestamp.After(latest) {
			latest = d.Timestamp
		}
	}

	byRegion := make(map[string][]string)
	for _, d := range details {
		if d.Timestamp.Equal(latest) {
			byRegion[string(d.Region)] = append(byRegion[string(d.Region)], d.UnitName)
		}
	}
	for _, units := range byRegion {
		sort.Strings(units)
	}

	return c.JSON(fiber.Map{
		"timestamp": models.FormatTimestamp(latest),
		"regions":   byRegion,
	})
}

// rowJSON renders a persisted row, with missing features as JSON null.
func rowJSON(row models.AggregatedRow) fiber.Map {
	return fiber.Map{
		"timestamp":         models.FormatTimestamp(row.Timestamp),
		"region":            string(row.Region),
		"fuel_type":         row.FuelType,
		"net_power":         row.NetPower,
		"temp_now":          nullable(row.Features.TempNow),
		"wind_now":          nullable(row.Features.WindNow),
		"w_code_now":        nullable(row.Features.CodeNow),
		"temp_future_12h":   nullable(row.Features.TempFuture12h),
		"wind_future_12h":   nullable(row.Features.WindFuture12h),
		"w_code_future_12h": nullable(row.Features.CodeFuture12h),
	}
}

func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func sharePct(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(part/total*1000) / 10
}

var startTime = time.Now()
