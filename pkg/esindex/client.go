package esindex

import (
	"fmt"
	"net/http"

	"civicserve-backend/pkg/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// Client is a read-only view over the denormalized case index. An external
// process keeps the index populated; the portal only queries it, trading a
// little staleness for combined text+geo search the case system can't do.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// NewClient fails at construction when the index URL is missing. The
// provided HTTP client's transport is reused so the shared proxy policy
// applies to index traffic too.
func NewClient(cfg *config.Config, httpClient *http.Client) (*Client, error) {
	if cfg.Elasticsearch.URL == "" {
		return nil, fmt.Errorf("elasticsearch url is not configured")
	}
	if cfg.Elasticsearch.Index == "" {
		return nil, fmt.Errorf("elasticsearch index is not configured")
	}

	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.Elasticsearch.URL},
	}
	if httpClient != nil {
		esCfg.Transport = httpClient.Transport
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %v", err)
	}

	return &Client{es: es, index: cfg.Elasticsearch.Index}, nil
}
