package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"civicserve-backend/internal/errors"
	"civicserve-backend/internal/models"
	"civicserve-backend/pkg/logger"
	"civicserve-backend/pkg/metrics"
)

// pageSize caps every index query; the portal never paginates case search.
const pageSize = 50

// indexedDoc mirrors the index mapping written by the external indexer.
// The geo-point uses lat/lon at the storage layer; the portal speaks
// lat/lng, so this type is where the two are bridged.
type indexedDoc struct {
	ServiceRequestID  string `json:"service_request_id"`
	Status            string `json:"status"`
	Description       string `json:"description"`
	ServiceCode       string `json:"service_code"`
	ServiceName       string `json:"service_name"`
	Address           string `json:"address"`
	RequestedDatetime string `json:"requested_datetime"`
	UpdatedDatetime   string `json:"updated_datetime"`
	Location          *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source indexedDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// buildSearchBody assembles one bool query from the optional full-text
// match and the optional bounding-box filter. Both are independently
// composable; with neither, the query matches everything.
func buildSearchBody(query string, bbox *models.BoundingBox) map[string]interface{} {
	boolQuery := map[string]interface{}{}

	if query != "" {
		boolQuery["must"] = []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  query,
					"fields": []string{"description", "service_name", "address"},
				},
			},
		}
	}

	if bbox != nil {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"geo_bounding_box": map[string]interface{}{
					"location": map[string]interface{}{
						"top_left":     map[string]float64{"lat": bbox.MaxLat, "lon": bbox.MinLng},
						"bottom_right": map[string]float64{"lat": bbox.MinLat, "lon": bbox.MaxLng},
					},
				},
			},
		}
	}

	return map[string]interface{}{
		"size": pageSize,
		"sort": []interface{}{
			map[string]interface{}{"requested_datetime": "desc"},
		},
		"query": map[string]interface{}{"bool": boolQuery},
	}
}

// SearchCases runs one index query and returns up to pageSize cases sorted
// by requested time descending.
func (c *Client) SearchCases(ctx context.Context, query string, bbox *models.BoundingBox) ([]models.IndexedCase, error) {
	body, err := json.Marshal(buildSearchBody(query, bbox))
	if err != nil {
		return nil, fmt.Errorf("failed to encode search body: %v", err)
	}

	start := time.Now()
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("elasticsearch", "search", "error").Inc()
		return nil, fmt.Errorf("index search failed: %v", err)
	}
	defer res.Body.Close()

	metrics.UpstreamRequestDuration.WithLabelValues("elasticsearch", "search").Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues("elasticsearch", "search", res.Status()).Inc()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %v", err)
	}
	if res.IsError() {
		logger.GlobalLogger.Errorf("Index search failed: status=%s, response=%s", res.Status(), string(raw))
		return nil, errors.NewUpstreamError("elasticsearch", "search", res.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewUpstreamError("elasticsearch", "search", res.StatusCode, "malformed response: "+err.Error())
	}

	cases := make([]models.IndexedCase, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		ic := models.IndexedCase{
			RequestID:   doc.ServiceRequestID,
			Status:      doc.Status,
			Description: doc.Description,
			ServiceCode: doc.ServiceCode,
			ServiceName: doc.ServiceName,
			Address:     doc.Address,
		}
		if doc.Location != nil {
			ic.Location = &models.LatLng{Lat: doc.Location.Lat, Lng: doc.Location.Lon}
		}
		if t, err := time.Parse(time.RFC3339, doc.RequestedDatetime); err == nil {
			ic.RequestedAt = &t
		}
		if t, err := time.Parse(time.RFC3339, doc.UpdatedDatetime); err == nil {
			ic.UpdatedAt = &t
		}
		cases = append(cases, ic)
	}
	return cases, nil
}
