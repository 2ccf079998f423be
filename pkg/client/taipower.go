package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// TaipowerClient fetches the live per-generator output feed (genary) and
// the current system load (loadpara). Taipower fronts both with an
// aggressive CDN cache, so every request carries a cache-busting query
// parameter.
type TaipowerClient struct {
	*BaseClient
	generationURL string
	demandURL     string
}

func NewTaipowerClient(generationURL, demandURL string, config ClientConfig, logger *zap.Logger) *TaipowerClient {
	return &TaipowerClient{
		BaseClient:    NewBaseClient("taipower", config, logger),
		generationURL: generationURL,
		demandURL:     demandURL,
	}
}

// FetchGeneration returns the raw genary JSON document.
func (c *TaipowerClient) FetchGeneration(ctx context.Context) ([]byte, error) {
	data, err := c.GetWithRetry(ctx, cacheBust(c.generationURL))
	if err != nil {
		return nil, eris.Wrap(err, "taipower: fetch generation feed")
	}
	return data, nil
}

// FetchDemand returns the raw loadpara JSON document.
func (c *TaipowerClient) FetchDemand(ctx context.Context) ([]byte, error) {
	data, err := c.GetWithRetry(ctx, cacheBust(c.demandURL))
	if err != nil {
		return nil, eris.Wrap(err, "taipower: fetch demand feed")
	}
	return data, nil
}

func cacheBust(url string) string {
	return fmt.Sprintf("%s?_=%d", url, time.Now().Unix())
}
