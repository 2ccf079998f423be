// Package region assigns generator units to geographic regions.
package region

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

// keywordRule maps name fragments to a region. Rules are evaluated in
// order; the first region whose keyword appears in the unit name wins.
type keywordRule struct {
	region   models.Region
	keywords []string
}

var keywordRules = []keywordRule{
	{models.RegionNorth, []string{"林口", "大潭", "新桃", "通霄", "協和", "石門", "翡翠", "桂山", "觀音", "龍潭", "北部"}},
	{models.RegionCentral, []string{"台中", "大甲溪", "明潭", "彰工", "中港", "竹南", "苗栗", "雲林", "麥寮", "中部", "彰"}},
	{models.RegionSouth, []string{"興達", "大林", "南部", "核三", "曾文", "嘉義", "台南", "高雄", "永安", "屏東"}},
	{models.RegionEast, []string{"和平", "花蓮", "蘭陽", "卑南", "立霧", "東部"}},
	{models.RegionIslands, []string{"澎湖", "金門", "馬祖", "塔山", "離島"}},
	{models.RegionOther, []string{"汽電共生", "其他台電自有", "其他購電太陽能", "其他購電風力", "購買地熱", "台電自有地熱", "生質能"}},
}

// Resolver maps unit names to regions: the static map is authoritative,
// keyword inference covers the rest, and anything unmatched lands in
// Unknown. Resolve is total; it never fails.
type Resolver struct {
	static map[string]models.Region
	logger *zap.Logger
}

// NewResolver loads the static unit-to-region map from mapPath. A missing
// map file is not an error: resolution then relies on keyword inference
// alone.
func NewResolver(mapPath string, logger *zap.Logger) *Resolver {
	static, err := loadStaticMap(mapPath)
	if err != nil {
		logger.Warn("Static region map unavailable, using keyword inference only",
			zap.String("path", mapPath),
			zap.Error(err))
		static = map[string]models.Region{}
	} else {
		logger.Info("Static region map loaded",
			zap.String("path", mapPath),
			zap.Int("entries", len(static)))
	}
	return &Resolver{static: static, logger: logger}
}

// Resolve returns exactly one region for any unit name.
func (r *Resolver) Resolve(unitName string) models.Region {
	if region, ok := r.static[unitName]; ok {
		return region
	}
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(unitName, kw) {
				return rule.region
			}
		}
	}
	return models.RegionUnknown
}

// loadStaticMap reads a two-column CSV (UNIT_NAME, REGION) with a header.
func loadStaticMap(path string) (map[string]models.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "region: open static map")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	static := make(map[string]models.Region)
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "region: read static map")
		}
		if first {
			first = false
			continue
		}
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
		region := strings.TrimSpace(record[1])
		if name == "" || region == "" {
			continue
		}
		static[name] = models.Region(region)
	}
	return static, nil
}
