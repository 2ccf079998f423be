package forecast

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

// County identifies one CWA forecast location to refresh.
type County struct {
	Name       string
	LocationID string
}

// Fetcher fetches one county's raw forecast document.
type Fetcher interface {
	FetchCounty(ctx context.Context, locationID string) ([]byte, error)
}

var weatherLogHeader = []string{
	"DATETIME", "COUNTY",
	"TEMP_now", "WIND_now", "W_CODE_now",
	"TEMP_future_12h", "WIND_future_12h", "W_CODE_future_12h",
}

// Refresher maintains the on-disk forecast cache the pipeline enriches
// from. It runs on a longer cycle than the pipeline itself. Alongside the
// raw documents it appends a per-county sample row to the weather data log
// and fingerprints the payload structure so upstream reshapes are noticed
// when they happen, not when lookups start going missing.
type Refresher struct {
	fetcher         Fetcher
	cacheDir        string
	fingerprintPath string
	structureLog    string
	weatherLog      string
	logger          *zap.Logger

	now func() time.Time
}

func NewRefresher(fetcher Fetcher, cacheDir, fingerprintPath, structureLog, weatherLog string, logger *zap.Logger) *Refresher {
	return &Refresher{
		fetcher:         fetcher,
		cacheDir:        cacheDir,
		fingerprintPath: fingerprintPath,
		structureLog:    structureLog,
		weatherLog:      weatherLog,
		logger:          logger,
		now:             time.Now,
	}
}

// RefreshAll fetches and caches every county. Per-county failures are
// logged and skipped; the refresh is only an error when nothing at all
// could be fetched.
func (r *Refresher) RefreshAll(ctx context.Context, counties []County) error {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return eris.Wrap(err, "refresher: create cache directory")
	}

	timestamp := r.now().In(models.Taipei()).Format(models.TimestampLayout)
	var fetched [][]byte
	for _, county := range counties {
		data, err := r.refreshCounty(ctx, county, timestamp)
		if err != nil {
			r.logger.Error("County forecast refresh failed",
				zap.String("county", county.Name),
				zap.String("location_id", county.LocationID),
				zap.Error(err))
			continue
		}
		fetched = append(fetched, data)
	}

	if len(fetched) == 0 {
		return eris.New("refresher: no county forecast could be fetched")
	}

	r.checkStructure(fetched, timestamp)
	r.logger.Info("Forecast cache refreshed",
		zap.Int("counties", len(fetched)),
		zap.Int("requested", len(counties)))
	return nil
}

func (r *Refresher) refreshCounty(ctx context.Context, county County, timestamp string) ([]byte, error) {
	data, err := r.fetcher.FetchCounty(ctx, county.LocationID)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(r.cacheDir, county.Name+"_forecast.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, eris.Wrap(err, "refresher: write cache file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, eris.Wrap(err, "refresher: replace cache file")
	}

	if err := r.logSample(county.Name, data, timestamp); err != nil {
		r.logger.Warn("Weather data log not updated",
			zap.String("county", county.Name),
			zap.Error(err))
	}
	return data, nil
}

// logSample appends one row of representative values per county: the first
// window stands in for "now", the second for "+12h".
func (r *Refresher) logSample(county string, data []byte, timestamp string) error {
	doc, err := ParseDocument(data)
	if err != nil {
		return err
	}

	elements := doc.SharedElements
	if len(doc.Locations) > 0 && len(doc.Locations[0].Elements) > 0 {
		elements = doc.Locations[0].Elements
	}

	sample := func(elementName string, index int) string {
		for _, el := range elements {
			if el.Name != elementName {
				continue
			}
			if index >= len(el.Windows) {
				return "N/A"
			}
			w := el.Windows[index]
			if elementName == ElementWeatherCode {
				if w.WeatherCode == "" {
					return "N/A"
				}
				return w.WeatherCode
			}
			if w.Value == "" {
				return "N/A"
			}
			return w.Value
		}
		return "N/A"
	}

	record := []string{
		timestamp, county,
		sample(ElementTemperature, 0), sample(ElementWindSpeed, 0), sample(ElementWeatherCode, 0),
		sample(ElementTemperature, 1), sample(ElementWindSpeed, 1), sample(ElementWeatherCode, 1),
	}

	_, statErr := os.Stat(r.weatherLog)
	isNew := os.IsNotExist(statErr)
	f, err := os.OpenFile(r.weatherLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrap(err, "refresher: open weather data log")
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if isNew {
		if err := writer.Write(weatherLogHeader); err != nil {
			return eris.Wrap(err, "refresher: write weather log header")
		}
	}
	if err := writer.Write(record); err != nil {
		return eris.Wrap(err, "refresher: write weather log row")
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "refresher: flush weather log")
}

type storedFingerprint struct {
	Fingerprint string `json:"fingerprint"`
	Timestamp   string `json:"timestamp"`
}

// checkStructure compares the combined structural fingerprint of this
// fetch against the stored one and logs the outcome.
func (r *Refresher) checkStructure(documents [][]byte, timestamp string) {
	current, err := Fingerprint(documents)
	if err != nil {
		r.logger.Warn("Structure fingerprint not computed", zap.Error(err))
		return
	}

	var previous string
	if data, err := os.ReadFile(r.fingerprintPath); err == nil {
		var stored storedFingerprint
		if err := json.Unmarshal(data, &stored); err == nil {
			previous = stored.Fingerprint
		}
	}

	if current == previous {
		r.appendStructureLog(fmt.Sprintf("[%s] OK Forecast structure unchanged.\n", timestamp))
		return
	}

	r.appendStructureLog(fmt.Sprintf(
		"[%s] CHANGED Forecast structure changed.\n  old: %s\n  new: %s\n",
		timestamp, previous, current))
	r.logger.Warn("Forecast document structure changed",
		zap.String("previous", previous),
		zap.String("current", current))

	data, err := json.Marshal(storedFingerprint{Fingerprint: current, Timestamp: timestamp})
	if err != nil {
		return
	}
	if err := os.WriteFile(r.fingerprintPath, data, 0o644); err != nil {
		r.logger.Warn("Structure fingerprint not saved", zap.Error(err))
	}
}

func (r *Refresher) appendStructureLog(line string) {
	f, err := os.OpenFile(r.structureLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Warn("Structure log not updated", zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		r.logger.Warn("Structure log not updated", zap.Error(err))
	}
}
