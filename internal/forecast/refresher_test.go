package forecast

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

type fakeFetcher struct {
	docs map[string][]byte
}

func (f *fakeFetcher) FetchCounty(ctx context.Context, locationID string) ([]byte, error) {
	doc, ok := f.docs[locationID]
	if !ok {
		return nil, eris.New("no such location")
	}
	return doc, nil
}

const countyDoc = `{"records": {"locations": [{"location": [{
  "locationName": "花蓮市",
  "weatherElement": [
    {"elementName": "平均溫度", "time": [
      {"startTime": "2026-08-23 06:00:00", "endTime": "2026-08-23 18:00:00", "elementValue": [{"Temperature": "25"}]},
      {"startTime": "2026-08-23 18:00:00", "endTime": "2026-08-24 06:00:00", "elementValue": [{"Temperature": "22"}]}
    ]}
  ]
}]}]}}`

type refresherFixture struct {
	refresher *Refresher
	cacheDir  string
	base      string
}

func newRefresherFixture(t *testing.T, fetcher Fetcher) *refresherFixture {
	t.Helper()
	base := t.TempDir()
	cacheDir := filepath.Join(base, "forecast_cache")
	r := NewRefresher(fetcher,
		cacheDir,
		filepath.Join(base, "structure_fingerprint.json"),
		filepath.Join(base, "structure_log.txt"),
		filepath.Join(base, "weather_data_log.csv"),
		zap.NewNop())
	r.now = func() time.Time {
		return time.Date(2026, 8, 23, 9, 0, 0, 0, models.Taipei())
	}
	return &refresherFixture{refresher: r, cacheDir: cacheDir, base: base}
}

func TestRefreshAll_CachesEveryCounty(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string][]byte{
		"F-D0047-041": []byte(countyDoc),
	}}
	fx := newRefresherFixture(t, fetcher)

	counties := []County{{Name: "花蓮縣", LocationID: "F-D0047-041"}}
	require.NoError(t, fx.refresher.RefreshAll(context.Background(), counties))

	cached, err := os.ReadFile(filepath.Join(fx.cacheDir, "花蓮縣_forecast.json"))
	require.NoError(t, err)
	assert.Equal(t, countyDoc, string(cached))

	sample, err := os.ReadFile(filepath.Join(fx.base, "weather_data_log.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(sample)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "花蓮縣")
	assert.Contains(t, lines[1], "25")
	assert.Contains(t, lines[1], "N/A", "elements not present in the document sample as N/A")
}

func TestRefreshAll_SkipsFailedCounties(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string][]byte{
		"F-D0047-041": []byte(countyDoc),
	}}
	fx := newRefresherFixture(t, fetcher)

	counties := []County{
		{Name: "花蓮縣", LocationID: "F-D0047-041"},
		{Name: "臺東縣", LocationID: "F-D0047-037"},
	}
	require.NoError(t, fx.refresher.RefreshAll(context.Background(), counties))

	_, err := os.Stat(filepath.Join(fx.cacheDir, "花蓮縣_forecast.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(fx.cacheDir, "臺東縣_forecast.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRefreshAll_AllFailuresIsError(t *testing.T) {
	fx := newRefresherFixture(t, &fakeFetcher{})

	err := fx.refresher.RefreshAll(context.Background(), []County{{Name: "花蓮縣", LocationID: "F-D0047-041"}})
	assert.Error(t, err)
}

func TestRefreshAll_StructureLogTransitions(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string][]byte{
		"F-D0047-041": []byte(countyDoc),
	}}
	fx := newRefresherFixture(t, fetcher)
	counties := []County{{Name: "花蓮縣", LocationID: "F-D0047-041"}}

	// First refresh: no stored fingerprint, so the structure reads as
	// changed. Second refresh with the same payload reads as unchanged.
	require.NoError(t, fx.refresher.RefreshAll(context.Background(), counties))
	require.NoError(t, fx.refresher.RefreshAll(context.Background(), counties))

	log, err := os.ReadFile(filepath.Join(fx.base, "structure_log.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(log)), "\n")
	assert.Contains(t, lines[0], "CHANGED")
	assert.Contains(t, lines[len(lines)-1], "OK")
}

func TestCache_County(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "花蓮縣_forecast.json"), []byte(countyDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_forecast.json"), []byte("not json"), 0o644))
	cache := NewCache(dir, zap.NewNop())

	doc, ok := cache.County("花蓮縣")
	require.True(t, ok)
	require.Len(t, doc.Locations, 1)
	assert.Equal(t, "花蓮市", doc.Locations[0].Name)

	_, ok = cache.County("missing")
	assert.False(t, ok)

	_, ok = cache.County("broken")
	assert.False(t, ok)
}
