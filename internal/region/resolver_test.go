package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

func writeStaticMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plant_to_region_map.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_StaticMapWins(t *testing.T) {
	// 核三 would infer South by keyword; the static map overrides it.
	path := writeStaticMap(t, "UNIT_NAME,REGION\n核三#1,Islands\n")
	resolver := NewResolver(path, zap.NewNop())

	assert.Equal(t, models.RegionIslands, resolver.Resolve("核三#1"))
}

func TestResolve_KeywordFallback(t *testing.T) {
	resolver := NewResolver(filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())

	assert.Equal(t, models.RegionNorth, resolver.Resolve("林口#1"))
	assert.Equal(t, models.RegionCentral, resolver.Resolve("台中#3"))
	assert.Equal(t, models.RegionSouth, resolver.Resolve("興達#2"))
	assert.Equal(t, models.RegionEast, resolver.Resolve("花蓮機組"))
	assert.Equal(t, models.RegionIslands, resolver.Resolve("澎湖#1"))
	assert.Equal(t, models.RegionOther, resolver.Resolve("汽電共生A"))
}

func TestResolve_FirstKeywordRuleWins(t *testing.T) {
	resolver := NewResolver(filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())

	// 北部 matches the North rule before any later rule can apply.
	assert.Equal(t, models.RegionNorth, resolver.Resolve("北部小水力"))
}

func TestResolve_UnknownDefault(t *testing.T) {
	resolver := NewResolver(filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())

	assert.Equal(t, models.RegionUnknown, resolver.Resolve("某個不認識的機組"))
	assert.Equal(t, models.RegionUnknown, resolver.Resolve(""))
}

func TestResolve_AlwaysYieldsKnownRegion(t *testing.T) {
	path := writeStaticMap(t, "UNIT_NAME,REGION\n大潭#7,North\n")
	resolver := NewResolver(path, zap.NewNop())

	valid := map[models.Region]struct{}{
		models.RegionNorth: {}, models.RegionCentral: {}, models.RegionSouth: {},
		models.RegionEast: {}, models.RegionIslands: {}, models.RegionOther: {},
		models.RegionUnknown: {},
	}
	for _, name := range []string{"大潭#7", "林口#1", "不明機組", "", "塔山#2", "生質能一號"} {
		region := resolver.Resolve(name)
		_, ok := valid[region]
		assert.True(t, ok, "unit %q resolved to unexpected region %q", name, region)
	}
}

func TestNewResolver_MissingMapFileIsNotFatal(t *testing.T) {
	resolver := NewResolver(filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop())
	assert.Equal(t, models.RegionNorth, resolver.Resolve("大潭#7"))
}
