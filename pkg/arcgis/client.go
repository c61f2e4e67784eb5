package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"civicserve-backend/internal/errors"
	"civicserve-backend/pkg/config"
	"civicserve-backend/pkg/logger"
	"civicserve-backend/pkg/metrics"
)

// wgs84 is the output spatial reference for every call; the service's
// native reference is otherwise ambiguous.
const wgs84 = "4326"

// Client wraps the city's ArcGIS geocoding and feature-layer services.
type Client struct {
	geocoderURL    string
	liveAddressURL string
	openSpaceURL   string
	httpClient     *http.Client
}

// NewClient fails at construction when any endpoint is missing.
func NewClient(cfg *config.Config, httpClient *http.Client) (*Client, error) {
	if cfg.ArcGIS.GeocoderURL == "" {
		return nil, fmt.Errorf("arcgis geocoder URL is not configured")
	}
	if cfg.ArcGIS.LiveAddressURL == "" {
		return nil, fmt.Errorf("arcgis live address layer URL is not configured")
	}
	if cfg.ArcGIS.OpenSpaceURL == "" {
		return nil, fmt.Errorf("arcgis open space layer URL is not configured")
	}
	return &Client{
		geocoderURL:    cfg.ArcGIS.GeocoderURL,
		liveAddressURL: cfg.ArcGIS.LiveAddressURL,
		openSpaceURL:   cfg.ArcGIS.OpenSpaceURL,
		httpClient:     httpClient,
	}, nil
}

// get performs one JSON GET and decodes the response envelope. A non-2xx
// status is an upstream error carrying the raw body; success/error shape
// discrimination happens in the caller via the envelope's error field.
func (c *Client) get(ctx context.Context, baseURL, operation string, params url.Values, envelope interface{}) error {
	params.Set("f", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %v", operation, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("arcgis", operation, "error").Inc()
		return fmt.Errorf("%s request failed: %v", operation, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestDuration.WithLabelValues("arcgis", operation).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues("arcgis", operation, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %v", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.GlobalLogger.Errorf("ArcGIS %s failed: status=%s, response=%s", operation, resp.Status, string(body))
		return errors.NewUpstreamError("arcgis", operation, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, envelope); err != nil {
		logger.GlobalLogger.Errorf("ArcGIS %s response not parseable: response=%s, error=%v", operation, string(body), err)
		return errors.NewUpstreamError("arcgis", operation, resp.StatusCode, "malformed response: "+err.Error())
	}

	return nil
}

// envelopeError converts an ArcGIS JSON-level error into an UpstreamError.
// ArcGIS reports application errors in a 200 response body.
func envelopeError(operation string, e *errorBody) error {
	logger.GlobalLogger.Errorf("ArcGIS %s returned error: code=%d, message=%s", operation, e.Code, e.Message)
	return errors.NewUpstreamError("arcgis", operation, e.Code, e.Message)
}
