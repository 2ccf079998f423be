package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	Feed struct {
		GenerationURL string
		DemandURL     string
		Timeout       time.Duration
	}

	CWA struct {
		BaseURL string
		APIKey  string
	}

	Paths struct {
		DataDir          string
		ForecastCacheDir string
		PlantMapFile     string
		StateFile        string
		FluctuationLog   string
		UnknownUnitsLog  string
		UnitDetailsLog   string
		DemandFile       string
		FingerprintFile  string
		StructureLog     string
		WeatherDataLog   string
	}

	Scheduler struct {
		CronSpec string
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}

	CircuitBreaker struct {
		Timeout time.Duration
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))

	// Upstream feeds
	cfg.Feed.GenerationURL = getEnv("TAIPOWER_GENERATION_URL",
		"https://www.taipower.com.tw/d006/loadGraph/loadGraph/data/genary.json")
	cfg.Feed.DemandURL = getEnv("TAIPOWER_DEMAND_URL",
		"https://www.taipower.com.tw/d006/loadGraph/loadGraph/data/loadpara.json")
	cfg.Feed.Timeout = parseDuration(getEnv("FEED_TIMEOUT", "20s"))

	cfg.CWA.BaseURL = getEnv("CWA_BASE_URL",
		"https://opendata.cwa.gov.tw/api/v1/rest/datastore/F-D0047-093")
	cfg.CWA.APIKey = getEnv("CWA_API_KEY", "")

	// Data layout
	dataDir := getEnv("DATA_DIR", "data")
	cfg.Paths.DataDir = filepath.Join(dataDir, "final_data")
	cfg.Paths.ForecastCacheDir = getEnv("FORECAST_CACHE_DIR", filepath.Join(dataDir, "forecast_cache"))
	cfg.Paths.PlantMapFile = getEnv("PLANT_MAP_FILE", filepath.Join(dataDir, "plant_to_region_map.csv"))
	cfg.Paths.StateFile = filepath.Join(dataDir, "last_run_units.json")
	cfg.Paths.FluctuationLog = filepath.Join(dataDir, "fluctuation_log.txt")
	cfg.Paths.UnknownUnitsLog = filepath.Join(dataDir, "unknown_units_log.txt")
	cfg.Paths.UnitDetailsLog = filepath.Join(dataDir, "unit_details_log.csv")
	cfg.Paths.DemandFile = filepath.Join(cfg.Paths.DataDir, "electricity_demand.csv")
	cfg.Paths.FingerprintFile = filepath.Join(dataDir, "weather_structure_fingerprint.json")
	cfg.Paths.StructureLog = filepath.Join(dataDir, "weather_structure_log.txt")
	cfg.Paths.WeatherDataLog = filepath.Join(dataDir, "weather_data_log.csv")

	// Scheduler configuration
	cfg.Scheduler.CronSpec = getEnv("PIPELINE_CRON", "*/10 * * * *")

	// Retry configuration
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "3"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "1s"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
