package forecast

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Cache reads county forecast documents from the on-disk cache directory
// maintained out-of-band by the forecast fetcher. Documents are named
// <county>_forecast.json.
type Cache struct {
	dir    string
	logger *zap.Logger
}

func NewCache(dir string, logger *zap.Logger) *Cache {
	return &Cache{dir: dir, logger: logger}
}

// CountyPath returns the cache file path for a county.
func (c *Cache) CountyPath(county string) string {
	return filepath.Join(c.dir, county+"_forecast.json")
}

// County loads and normalizes one county's cached forecast. A missing or
// malformed document is reported as absent, not as an error; the enricher
// degrades accordingly.
func (c *Cache) County(county string) (*Document, bool) {
	path := c.CountyPath(county)
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("Forecast cache document unavailable",
			zap.String("county", county),
			zap.String("path", path),
			zap.Error(err))
		return nil, false
	}
	doc, err := ParseDocument(data)
	if err != nil {
		c.logger.Warn("Forecast cache document malformed",
			zap.String("county", county),
			zap.Error(err))
		return nil, false
	}
	return doc, true
}
