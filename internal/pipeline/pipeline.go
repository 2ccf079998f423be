// Package pipeline orchestrates one ingestion-enrichment-aggregation run
// over the Taipower live generation feed.
package pipeline

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
	"github.com/BillEdwards42/green-moment-BE/internal/region"
	"github.com/BillEdwards42/green-moment-BE/internal/store"
	"github.com/BillEdwards42/green-moment-BE/internal/weather"
)

// FeedClient fetches the raw upstream documents. Implemented by
// pkg/client.TaipowerClient.
type FeedClient interface {
	FetchGeneration(ctx context.Context) ([]byte, error)
	FetchDemand(ctx context.Context) ([]byte, error)
}

// Pipeline wires one run: fetch, resolve regions, diff units, enrich,
// aggregate, persist, log.
type Pipeline struct {
	feed      FeedClient
	resolver  *region.Resolver
	enricher  *weather.Enricher
	segmented *store.SegmentedStore
	logs      *store.Logs
	statePath string
	logger    *zap.Logger

	now func() time.Time // injectable clock
}

func New(feed FeedClient, resolver *region.Resolver, enricher *weather.Enricher,
	segmented *store.SegmentedStore, logs *store.Logs, statePath string, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		feed:      feed,
		resolver:  resolver,
		enricher:  enricher,
		segmented: segmented,
		logs:      logs,
		statePath: statePath,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one pipeline run to completion. A feed fetch or parse
// failure aborts before anything is persisted, leaving the previous state
// authoritative; everything downstream of a successful parse degrades
// per-field instead of failing.
func (p *Pipeline) Run(ctx context.Context) error {
	effective := models.EffectiveTime(p.now())
	timestamp := models.FormatTimestamp(effective)
	logger := p.logger.With(zap.String("effective_time", timestamp))
	logger.Info("Pipeline run started")

	feedData, err := p.feed.FetchGeneration(ctx)
	if err != nil {
		logger.Error("Pipeline run failed, generation feed unavailable", zap.Error(err))
		return err
	}

	p.recordDemand(ctx, timestamp, logger)

	records, err := ParseFeed(feedData, effective)
	if err != nil {
		logger.Error("Pipeline run failed, generation feed malformed", zap.Error(err))
		return err
	}
	if len(records) == 0 {
		logger.Warn("Pipeline run ended, no valid generator records in feed")
		return nil
	}
	logger.Info("Generation feed parsed", zap.Int("units", len(records)))

	p.trackFluctuation(records, timestamp, logger)

	resolved := make([]models.ResolvedRecord, 0, len(records))
	var unknown []string
	for _, r := range records {
		assigned := p.resolver.Resolve(r.UnitName)
		if assigned == models.RegionUnknown {
			unknown = append(unknown, r.UnitName)
		}
		resolved = append(resolved, models.ResolvedRecord{GenerationRecord: r, Region: assigned})
	}
	p.recordUnknownUnits(unknown, timestamp, logger)

	details := make([]store.UnitDetail, 0, len(resolved))
	for _, r := range resolved {
		details = append(details, store.UnitDetail{
			Timestamp: r.Timestamp,
			UnitName:  r.UnitName,
			Region:    r.Region,
			FuelType:  r.FuelType,
		})
	}
	if err := p.logs.AppendUnitDetails(details); err != nil {
		logger.Warn("Unit detail log not updated", zap.Error(err))
	}

	// One enrichment per distinct region per run; all units of a region
	// share it.
	features := make(map[models.Region]models.FeatureSet)
	for i := range resolved {
		r := &resolved[i]
		if _, ok := features[r.Region]; !ok {
			features[r.Region] = p.enricher.Enrich(r.Region, effective)
		}
		r.Features = features[r.Region]
	}
	logger.Info("Weather enrichment completed", zap.Int("regions", len(features)))

	rows := Aggregate(resolved, logger)
	if err := p.segmented.Upsert(rows); err != nil {
		logger.Error("Pipeline run failed, segmented tables not persisted", zap.Error(err))
		return err
	}

	logger.Info("Pipeline run successful",
		zap.Int("units", len(records)),
		zap.Int("aggregated_rows", len(rows)))
	return nil
}

// recordDemand fetches and appends the current system load. Demand is a
// side channel; its failure never fails the run.
func (p *Pipeline) recordDemand(ctx context.Context, timestamp string, logger *zap.Logger) {
	data, err := p.feed.FetchDemand(ctx)
	if err != nil {
		logger.Warn("Demand feed unavailable", zap.Error(err))
		return
	}
	demand, err := ParseDemand(data)
	if err != nil {
		logger.Warn("Demand feed malformed", zap.Error(err))
		return
	}
	if err := p.logs.AppendDemand(timestamp, demand); err != nil {
		logger.Warn("Demand log not updated", zap.Error(err))
		return
	}
	logger.Info("Current demand recorded", zap.Float64("demand_mw", demand))
}

// trackFluctuation diffs the current unit set against the persisted
// previous set, logs the change, and overwrites the state unconditionally.
func (p *Pipeline) trackFluctuation(records []models.GenerationRecord, timestamp string, logger *zap.Logger) {
	current := UnitSet(records)
	previous := store.LoadState(p.statePath, logger)
	added, missing := Diff(current, previous)

	if err := p.logs.AppendFluctuation(timestamp, len(current), added, missing); err != nil {
		logger.Warn("Fluctuation log not updated", zap.Error(err))
	}
	if err := store.SaveState(p.statePath, current); err != nil {
		logger.Warn("Run state not persisted", zap.Error(err))
	}
	logger.Info("Unit fluctuation tracked",
		zap.Int("units", len(current)),
		zap.Int("added", len(added)),
		zap.Int("missing", len(missing)))
}

// recordUnknownUnits appends the run's Unknown-region units to their log.
func (p *Pipeline) recordUnknownUnits(unknown []string, timestamp string, logger *zap.Logger) {
	deduped := dedupeSorted(unknown)
	if err := p.logs.AppendUnknownUnits(timestamp, deduped); err != nil {
		logger.Warn("Unknown units log not updated", zap.Error(err))
	}
	if len(deduped) > 0 {
		logger.Warn("Units without region assignment", zap.Strings("units", deduped))
	}
}

func dedupeSorted(names []string) []string {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	deduped := make([]string, 0, len(set))
	for name := range set {
		deduped = append(deduped, name)
	}
	sort.Strings(deduped)
	return deduped
}
