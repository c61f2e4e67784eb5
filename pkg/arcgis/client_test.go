package arcgis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicserve-backend/internal/errors"
	"civicserve-backend/pkg/config"
	"civicserve-backend/pkg/logger"
)

func init() {
	logger.InitLogger()
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.ArcGIS.GeocoderURL = srv.URL + "/geocoder"
	cfg.ArcGIS.LiveAddressURL = srv.URL + "/live"
	cfg.ArcGIS.OpenSpaceURL = srv.URL + "/openspace"
	client, err := NewClient(cfg, &http.Client{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestNewClientRequiresEndpoints(t *testing.T) {
	cfg := &config.Config{}
	cfg.ArcGIS.GeocoderURL = "https://gis.example.gov/geocoder"
	// live address and open space URLs missing
	if _, err := NewClient(cfg, http.DefaultClient); err == nil {
		t.Fatal("expected construction-time error for missing layer URLs")
	}
}

func TestFindAddressCandidatesParsesAttributes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("f"); got != "json" {
			t.Errorf("f = %q, want json", got)
		}
		if got := r.URL.Query().Get("outSR"); got != "4326" {
			t.Errorf("outSR = %q, want 4326", got)
		}
		w.Write([]byte(`{
			"candidates": [
				{
					"address": "1 CITY HALL SQ, BOSTON, MA, 02201",
					"location": {"x": -71.0588, "y": 42.3605},
					"score": 100,
					"attributes": {
						"Ref_ID": "12345",
						"Addr_type": "PointAddress",
						"Address_ID": "A-9",
						"Building_ID": "B-7",
						"Sub_Address_Unit": ""
					}
				}
			]
		}`))
	}))
	defer srv.Close()

	candidates, err := testClient(t, srv).FindAddressCandidates(context.Background(), "1 city hall sq")
	if err != nil {
		t.Fatalf("FindAddressCandidates returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.AddrType != AddrTypePointAddress {
		t.Errorf("AddrType = %q, want PointAddress", c.AddrType)
	}
	if c.RefID != "12345" || c.AddressID != "A-9" || c.BuildingID != "B-7" {
		t.Errorf("identifiers not mapped: %+v", c)
	}
	if c.Location.Lat != 42.3605 || c.Location.Lng != -71.0588 {
		t.Errorf("location x/y not mapped to lng/lat: %+v", c.Location)
	}
	if c.SubUnit {
		t.Error("empty Sub_Address_Unit should not flag a sub-unit")
	}
}

func TestEnvelopeErrorBecomesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ArcGIS reports application errors inside a 200 body.
		w.Write([]byte(`{"error": {"code": 498, "message": "Invalid token", "details": []}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).FindAddressCandidates(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error from error envelope")
	}
	upErr, ok := errors.AsUpstreamError(err)
	if !ok {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upErr.Message != "Invalid token" {
		t.Errorf("Message = %q, want upstream message preserved", upErr.Message)
	}
}

func TestReverseGeocodeNoMatchReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 400, "message": "Unable to find address for the specified location.", "details": []}}`))
	}))
	defer srv.Close()

	match, err := testClient(t, srv).ReverseGeocode(context.Background(), 42.3605, -71.0588)
	if err != nil {
		t.Fatalf("no-match should not be an error, got %v", err)
	}
	if match != nil {
		t.Errorf("expected nil match, got %+v", match)
	}
}

func TestOpenSpaceAtEmptyFeaturesReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	feature, err := testClient(t, srv).OpenSpaceAt(context.Background(), 42.3605, -71.0588)
	if err != nil {
		t.Fatalf("OpenSpaceAt returned error: %v", err)
	}
	if feature != nil {
		t.Errorf("expected nil outside any open space, got %+v", feature)
	}
}
