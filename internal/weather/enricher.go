// Package weather computes regional weather features from cached CWA
// forecasts.
package weather

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/forecast"
	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

// Town is a (county, town) pair addressing one forecast location.
type Town struct {
	County string
	Town   string
}

// Profile configures how a region's weather features are computed:
// temperature and wind are averaged over AvgTowns, while the categorical
// weather code is read from the single CodeTown.
type Profile struct {
	AvgTowns []Town
	CodeTown Town
	Counties []string // cached documents the region requires
}

var profiles = map[models.Region]Profile{
	models.RegionNorth: {
		AvgTowns: []Town{{"新北市", "林口區"}, {"桃園市", "觀音區"}, {"苗栗縣", "通霄鎮"}, {"臺北市", "中正區"}},
		CodeTown: Town{"臺北市", "中正區"},
		Counties: []string{"新北市", "桃園市", "苗栗縣", "臺北市"},
	},
	models.RegionCentral: {
		AvgTowns: []Town{{"臺中市", "龍井區"}, {"臺中市", "西屯區"}, {"彰化縣", "彰化市"}},
		CodeTown: Town{"臺中市", "西屯區"},
		Counties: []string{"臺中市", "彰化縣"},
	},
	models.RegionSouth: {
		AvgTowns: []Town{{"高雄市", "永安區"}, {"高雄市", "小港區"}, {"臺南市", "安南區"}, {"屏東縣", "恆春鎮"}},
		CodeTown: Town{"高雄市", "苓雅區"},
		Counties: []string{"高雄市", "臺南市", "屏東縣"},
	},
	models.RegionEast: {
		AvgTowns: []Town{{"花蓮縣", "花蓮市"}},
		CodeTown: Town{"花蓮縣", "花蓮市"},
		Counties: []string{"花蓮縣"},
	},
	models.RegionIslands: {
		AvgTowns: []Town{{"澎湖縣", "湖西鄉"}},
		CodeTown: Town{"澎湖縣", "湖西鄉"},
		Counties: []string{"澎湖縣"},
	},
}

// Enricher computes a region's feature set from the forecast cache.
type Enricher struct {
	cache  *forecast.Cache
	logger *zap.Logger
}

func NewEnricher(cache *forecast.Cache, logger *zap.Logger) *Enricher {
	return &Enricher{cache: cache, logger: logger}
}

// Enrich returns the weather features for a region at the run's effective
// time. Regions without a profile (Other, Unknown) get an empty feature
// set; they still flow through aggregation. A missing required county
// document also yields an empty set: partial forecast coverage must not
// abort the run.
func (e *Enricher) Enrich(region models.Region, effective time.Time) models.FeatureSet {
	profile, ok := profiles[region]
	if !ok {
		return models.EmptyFeatureSet()
	}

	docs := make(map[string]*forecast.Document, len(profile.Counties))
	for _, county := range profile.Counties {
		doc, ok := e.cache.County(county)
		if !ok {
			e.logger.Warn("Skipping region weather, required forecast missing",
				zap.String("region", string(region)),
				zap.String("county", county))
			return models.EmptyFeatureSet()
		}
		docs[county] = doc
	}

	features := models.EmptyFeatureSet()
	for _, horizon := range []struct {
		offset time.Duration
		temp   *float64
		wind   *float64
		code   *float64
	}{
		{0, &features.TempNow, &features.WindNow, &features.CodeNow},
		{12 * time.Hour, &features.TempFuture12h, &features.WindFuture12h, &features.CodeFuture12h},
	} {
		target := effective.Add(horizon.offset)

		var temps, winds []float64
		for _, town := range profile.AvgTowns {
			doc, ok := docs[town.County]
			if !ok {
				continue
			}
			if v, ok := forecast.Lookup(doc, town.Town, forecast.ElementTemperature, target); ok {
				temps = append(temps, v)
			}
			if v, ok := forecast.Lookup(doc, town.Town, forecast.ElementWindSpeed, target); ok {
				winds = append(winds, v)
			}
		}
		*horizon.temp = mean(temps)
		*horizon.wind = mean(winds)

		if doc, ok := docs[profile.CodeTown.County]; ok {
			if v, ok := forecast.Lookup(doc, profile.CodeTown.Town, forecast.ElementWeatherCode, target); ok {
				*horizon.code = math.Trunc(v)
			}
		}
	}
	return features
}

// mean averages the present values, rounded to two decimals. An empty set
// is missing, never zero.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*100) / 100
}
