package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CountyLocation pairs a county name with its CWA township-forecast
// datastore ID.
type CountyLocation struct {
	County     string
	LocationID string
}

// VitalLocations lists every county the regional weather profiles draw
// from, in fetch order.
var VitalLocations = []CountyLocation{
	{"臺北市", "F-D0047-063"},
	{"新北市", "F-D0047-071"},
	{"基隆市", "F-D0047-051"},
	{"桃園市", "F-D0047-007"},
	{"苗栗縣", "F-D0047-015"},
	{"臺中市", "F-D0047-075"},
	{"彰化縣", "F-D0047-019"},
	{"高雄市", "F-D0047-067"},
	{"臺南市", "F-D0047-079"},
	{"屏東縣", "F-D0047-035"},
	{"花蓮縣", "F-D0047-043"},
	{"澎湖縣", "F-D0047-047"},
}

// CWAClient fetches township forecast documents from the CWA open-data
// datastore.
type CWAClient struct {
	*BaseClient
	baseURL string
	apiKey  string
}

func NewCWAClient(baseURL, apiKey string, config ClientConfig, logger *zap.Logger) *CWAClient {
	return &CWAClient{
		BaseClient: NewBaseClient("cwa", config, logger),
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// FetchCounty returns the raw forecast JSON for one county location ID.
func (c *CWAClient) FetchCounty(ctx context.Context, locationID string) ([]byte, error) {
	params := url.Values{}
	params.Set("Authorization", c.apiKey)
	params.Set("locationId", locationID)

	data, err := c.GetWithRetry(ctx, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, eris.Wrapf(err, "cwa: fetch forecast for %s", locationID)
	}
	return data, nil
}
