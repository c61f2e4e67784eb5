package esindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicserve-backend/internal/models"
	"civicserve-backend/pkg/config"
	"civicserve-backend/pkg/logger"
)

func init() {
	logger.InitLogger()
}

func newIndexStub(t *testing.T, capture *map[string]interface{}, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The v8 client validates this header on every response.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodPost || r.Method == http.MethodGet {
			if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 && capture != nil {
				var parsed map[string]interface{}
				if err := json.Unmarshal(body, &parsed); err != nil {
					t.Errorf("search body not valid JSON: %v", err)
				}
				*capture = parsed
			}
		}
		w.Write([]byte(response))
	}))
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Elasticsearch.URL = srv.URL
	cfg.Elasticsearch.Index = "cases"
	client, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

const emptyResult = `{"hits":{"hits":[]}}`

func TestSearchBodyComposesTextAndGeo(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		bbox       *models.BoundingBox
		wantMust   bool
		wantFilter bool
	}{
		{name: "Neither clause", query: "", bbox: nil},
		{name: "Text only", query: "pothole", wantMust: true},
		{name: "Geo only", bbox: &models.BoundingBox{MinLat: 42.3, MinLng: -71.1, MaxLat: 42.4, MaxLng: -71.0}, wantFilter: true},
		{
			name:       "Both clauses",
			query:      "pothole",
			bbox:       &models.BoundingBox{MinLat: 42.3, MinLng: -71.1, MaxLat: 42.4, MaxLng: -71.0},
			wantMust:   true,
			wantFilter: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured map[string]interface{}
			srv := newIndexStub(t, &captured, emptyResult)
			defer srv.Close()

			if _, err := testClient(t, srv).SearchCases(context.Background(), tt.query, tt.bbox); err != nil {
				t.Fatalf("SearchCases returned error: %v", err)
			}

			if captured == nil {
				t.Fatal("no search body captured")
			}
			if got := captured["size"].(float64); got != 50 {
				t.Errorf("size = %v, want 50", got)
			}
			boolQuery := captured["query"].(map[string]interface{})["bool"].(map[string]interface{})
			if _, ok := boolQuery["must"]; ok != tt.wantMust {
				t.Errorf("must present = %v, want %v", ok, tt.wantMust)
			}
			if _, ok := boolQuery["filter"]; ok != tt.wantFilter {
				t.Errorf("filter present = %v, want %v", ok, tt.wantFilter)
			}
		})
	}
}

func TestSearchBodyBridgesLngToLon(t *testing.T) {
	bbox := &models.BoundingBox{MinLat: 42.3, MinLng: -71.1, MaxLat: 42.4, MaxLng: -71.0}
	body := buildSearchBody("", bbox)

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]interface{})[0].(map[string]interface{})
	box := filter["geo_bounding_box"].(map[string]interface{})["location"].(map[string]interface{})

	topLeft := box["top_left"].(map[string]float64)
	if topLeft["lon"] != -71.1 || topLeft["lat"] != 42.4 {
		t.Errorf("top_left = %v, want storage-layer lon/lat naming", topLeft)
	}
	bottomRight := box["bottom_right"].(map[string]float64)
	if bottomRight["lon"] != -71.0 || bottomRight["lat"] != 42.3 {
		t.Errorf("bottom_right = %v", bottomRight)
	}
}

func TestSearchCasesParsesHits(t *testing.T) {
	response := `{"hits":{"hits":[
		{"_source":{
			"service_request_id":"101002345678",
			"status":"open",
			"description":"streetlight out",
			"service_code":"STRLGT",
			"service_name":"Streetlight Outage",
			"address":"1 CITY HALL SQ",
			"requested_datetime":"2025-06-01T12:00:00Z",
			"location":{"lat":42.3605,"lon":-71.0588}
		}}
	]}}`

	srv := newIndexStub(t, nil, response)
	defer srv.Close()

	cases, err := testClient(t, srv).SearchCases(context.Background(), "streetlight", nil)
	if err != nil {
		t.Fatalf("SearchCases returned error: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(cases))
	}

	c := cases[0]
	if c.RequestID != "101002345678" || c.ServiceCode != "STRLGT" {
		t.Errorf("case not mapped: %+v", c)
	}
	if c.Location == nil || c.Location.Lng != -71.0588 {
		t.Errorf("storage lon not bridged to portal lng: %+v", c.Location)
	}
	if c.RequestedAt == nil {
		t.Error("requested_datetime not parsed")
	}
}
