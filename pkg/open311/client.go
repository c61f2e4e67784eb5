package open311

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civicserve-backend/internal/errors"
	"civicserve-backend/pkg/config"
	"civicserve-backend/pkg/logger"
	"civicserve-backend/pkg/metrics"
)

// Doer issues HTTP requests. In production this is the Salesforce session
// so every Open311 call rides the authenticated proxy; tests and
// unauthenticated deployments use a plain *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the Open311 GeoReport v2 endpoint of the city's case
// management system.
type Client struct {
	endpoint string
	apiKey   string
	doer     Doer
}

// NewClient fails at construction when the endpoint is missing.
func NewClient(cfg *config.Config, doer Doer) (*Client, error) {
	if cfg.Open311.Endpoint == "" {
		return nil, fmt.Errorf("open311 endpoint is not configured")
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Open311.Endpoint, "/"),
		apiKey:   cfg.Open311.APIKey,
		doer:     doer,
	}, nil
}

// buildURL joins a path onto the endpoint and appends the api_key when one
// is configured.
func (c *Client) buildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	u := c.endpoint + "/" + strings.TrimLeft(path, "/")
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// errNotFound is internal; exported methods translate it to a nil result.
var errNotFound = fmt.Errorf("open311: not found")

// do executes the request, handles the shared status-code policy, and
// decodes the body into dst.
func (c *Client) do(req *http.Request, operation string, dst interface{}) error {
	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("open311", operation, "error").Inc()
		return fmt.Errorf("%s request failed: %v", operation, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestDuration.WithLabelValues("open311", operation).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues("open311", operation, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %v", operation, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.GlobalLogger.Errorf("Open311 %s failed: status=%s, response=%s", operation, resp.Status, string(body))
		return errors.NewUpstreamError("open311", operation, resp.StatusCode, upstreamMessage(body))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		logger.GlobalLogger.Errorf("Open311 %s response not parseable: response=%s, error=%v", operation, string(body), err)
		return errors.NewUpstreamError("open311", operation, resp.StatusCode, "malformed response: "+err.Error())
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, operation string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, query), nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %v", operation, err)
	}
	return c.do(req, operation, dst)
}

// upstreamMessage extracts the upstream's own error description when the
// body is the Open311 error array, or returns the raw text.
func upstreamMessage(body []byte) string {
	var apiErrors []struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &apiErrors); err == nil && len(apiErrors) > 0 && apiErrors[0].Description != "" {
		return apiErrors[0].Description
	}
	return string(body)
}
