package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"civicserve-backend/internal/models"
	"civicserve-backend/internal/transformers"
	"civicserve-backend/pkg/arcgis"
	"civicserve-backend/pkg/logger"
)

func init() {
	logger.InitLogger()
}

// fakeGeocoder implements Geocoder with per-call hooks. Nil hooks return
// empty results.
type fakeGeocoder struct {
	mu        sync.Mutex
	findCalls []string

	find      func(query string) ([]arcgis.Candidate, error)
	reverse   func(lat, lng float64) (*arcgis.ReverseMatch, error)
	openSpace func(lat, lng float64) (*arcgis.OpenSpaceFeature, error)
	units     func(buildingID string) ([]arcgis.UnitFeature, error)
}

func (f *fakeGeocoder) FindAddressCandidates(_ context.Context, query string) ([]arcgis.Candidate, error) {
	f.mu.Lock()
	f.findCalls = append(f.findCalls, query)
	f.mu.Unlock()
	if f.find == nil {
		return nil, nil
	}
	return f.find(query)
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, lat, lng float64) (*arcgis.ReverseMatch, error) {
	if f.reverse == nil {
		return nil, nil
	}
	return f.reverse(lat, lng)
}

func (f *fakeGeocoder) OpenSpaceAt(_ context.Context, lat, lng float64) (*arcgis.OpenSpaceFeature, error) {
	if f.openSpace == nil {
		return nil, nil
	}
	return f.openSpace(lat, lng)
}

func (f *fakeGeocoder) LiveAddressesByBuilding(_ context.Context, buildingID string) ([]arcgis.UnitFeature, error) {
	if f.units == nil {
		return nil, nil
	}
	return f.units(buildingID)
}

func newTestResolver(geocoder Geocoder) *AddressResolver {
	return NewAddressResolver(geocoder, transformers.NewAddressTransformer())
}

func TestSearchDropsNonPointMatchesWhenPointPresent(t *testing.T) {
	geocoder := &fakeGeocoder{
		find: func(string) ([]arcgis.Candidate, error) {
			return []arcgis.Candidate{
				{Address: "1 CITY HALL SQ, BOSTON, MA, 02201", AddrType: arcgis.AddrTypeStreetName, Score: 90, Location: models.LatLng{Lat: 42.36, Lng: -71.06}},
				{Address: "1 CITY HALL SQ, BOSTON, MA, 02201", AddrType: arcgis.AddrTypePointAddress, Score: 100, AddressID: "12345", Location: models.LatLng{Lat: 42.3605, Lng: -71.0588}},
				{Address: "1 CITY HALL SQ, BOSTON, MA, 02201", AddrType: arcgis.AddrTypeLandmarkAlternate, Score: 95, Location: models.LatLng{Lat: 42.361, Lng: -71.059}},
			}, nil
		},
	}

	results, err := newTestResolver(geocoder).Search(context.Background(), "1 city hall sq")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the point-address match, got %d results", len(results))
	}
	if !results[0].Exact {
		t.Error("point-address match not marked exact")
	}
	if results[0].AddressID != "12345" {
		t.Errorf("AddressID = %q, want 12345", results[0].AddressID)
	}
}

func TestSearchDropsInexactIntersectionsWhenExactPresent(t *testing.T) {
	geocoder := &fakeGeocoder{
		find: func(string) ([]arcgis.Candidate, error) {
			return []arcgis.Candidate{
				{Address: "TREMONT ST & COURT ST, BOSTON, MA, 02108", AddrType: arcgis.AddrTypeIntersection, Score: 100, Location: models.LatLng{Lat: 42.358, Lng: -71.06}},
				{Address: "TREMONT ST & SCHOOL ST, BOSTON, MA, 02108", AddrType: arcgis.AddrTypeIntersection, Score: 87, Location: models.LatLng{Lat: 42.357, Lng: -71.059}},
			}, nil
		},
	}

	results, err := newTestResolver(geocoder).Search(context.Background(), "tremont & court")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the exact intersection, got %d results", len(results))
	}
	if !results[0].AlwaysUseLatLng {
		t.Error("intersection result should always submit by lat/lng")
	}
}

func TestSearchDedupsByRefBuildingAndLocation(t *testing.T) {
	geocoder := &fakeGeocoder{
		find: func(string) ([]arcgis.Candidate, error) {
			return []arcgis.Candidate{
				// Same Ref_ID twice: second copy dropped.
				{Address: "10 MAIN ST, BOSTON, MA, 02108", AddrType: arcgis.AddrTypePointAddress, Score: 100, RefID: "R1", BuildingID: "B1", Location: models.LatLng{Lat: 42.1, Lng: -71.1}},
				{Address: "10 MAIN ST, BOSTON, MA, 02108", AddrType: arcgis.AddrTypePointAddress, Score: 100, RefID: "R1", BuildingID: "B1", Location: models.LatLng{Lat: 42.1, Lng: -71.1}},
				// Same building as R1: dropped.
				{Address: "10R MAIN ST, BOSTON, MA, 02108", AddrType: arcgis.AddrTypePointAddress, Score: 99, RefID: "R2", BuildingID: "B1", Location: models.LatLng{Lat: 42.2, Lng: -71.2}},
				// Missing building id on both: always unique, both survive to
				// the coordinate pass, where the shared coordinate merges them.
				{Address: "12 MAIN ST, BOSTON, MA, 02108", AddrType: arcgis.AddrTypePointAddress, Score: 98, RefID: "R3", Location: models.LatLng{Lat: 42.3, Lng: -71.3}},
				{Address: "12 MAIN ST REAR, BOSTON, MA, 02108", AddrType: arcgis.AddrTypePointAddress, Score: 97, RefID: "R4", Location: models.LatLng{Lat: 42.3, Lng: -71.3}},
				// Sub-unit rows never appear in search results.
				{Address: "10 MAIN ST # 2, BOSTON, MA, 02108", AddrType: arcgis.AddrTypePointAddress, Score: 100, RefID: "R5", BuildingID: "B9", SubUnit: true, Location: models.LatLng{Lat: 42.4, Lng: -71.4}},
			}, nil
		},
	}

	results, err := newTestResolver(geocoder).Search(context.Background(), "main st")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after dedup, got %d: %+v", len(results), results)
	}
	if results[0].Location.Lat != 42.1 {
		t.Errorf("first result should be the R1 candidate, got %+v", results[0])
	}
	if results[1].Location.Lat != 42.3 {
		t.Errorf("second result should be the merged no-building candidate, got %+v", results[1])
	}
}

func TestSearchOrdersByScoreThenLocatorThenAddress(t *testing.T) {
	geocoder := &fakeGeocoder{
		find: func(string) ([]arcgis.Candidate, error) {
			return []arcgis.Candidate{
				{Address: "B STREET NAME, BOSTON, MA, 02127", AddrType: arcgis.AddrTypeStreetName, Score: 90, Location: models.LatLng{Lat: 1, Lng: 1}},
				{Address: "A STREET NAME, BOSTON, MA, 02127", AddrType: arcgis.AddrTypeStreetName, Score: 90, Location: models.LatLng{Lat: 2, Lng: 2}},
				{Address: "SEGMENT ALT, BOSTON, MA, 02127", AddrType: arcgis.AddrTypeSegmentAlternate, Score: 90, Location: models.LatLng{Lat: 3, Lng: 3}},
				{Address: "LOW SCORE, BOSTON, MA, 02127", AddrType: arcgis.AddrTypeStreetName, Score: 95, Location: models.LatLng{Lat: 4, Lng: 4}},
			}, nil
		},
	}

	results, err := newTestResolver(geocoder).Search(context.Background(), "street")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	want := []string{
		"LOW SCORE\nBOSTON, MA, 02127",   // highest score first
		"SEGMENT ALT\nBOSTON, MA, 02127", // tie broken by locator priority
		"A STREET NAME\nBOSTON, MA, 02127",
		"B STREET NAME\nBOSTON, MA, 02127", // final tie broken by address
	}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, w := range want {
		if results[i].Address != w {
			t.Errorf("results[%d].Address = %q, want %q", i, results[i].Address, w)
		}
	}
}

func TestSearchResolvesInterpolatedMatchViaReverseGeocode(t *testing.T) {
	geocoder := &fakeGeocoder{}
	geocoder.find = func(query string) ([]arcgis.Candidate, error) {
		switch query {
		case "123 blue hill ave":
			return []arcgis.Candidate{
				{Address: "123 BLUE HILL AVE, BOSTON, MA, 02121", AddrType: arcgis.AddrTypeStreetAddress, Score: 85, Location: models.LatLng{Lat: 42.31, Lng: -71.08}},
			}, nil
		case "121 BLUE HILL AVE, BOSTON, MA, 02121":
			return []arcgis.Candidate{
				{Address: "121 BLUE HILL AVE, BOSTON, MA, 02121", AddrType: arcgis.AddrTypePointAddress, Score: 100, AddressID: "A777", BuildingID: "B777", Location: models.LatLng{Lat: 42.3101, Lng: -71.0801}},
			}, nil
		}
		return nil, nil
	}
	geocoder.reverse = func(lat, lng float64) (*arcgis.ReverseMatch, error) {
		return &arcgis.ReverseMatch{
			Address:  "121 BLUE HILL AVE, BOSTON, MA, 02121",
			AddrType: arcgis.AddrTypePointAddress,
			Location: models.LatLng{Lat: 42.3101, Lng: -71.0801},
		}, nil
	}

	results, err := newTestResolver(geocoder).Search(context.Background(), "123 blue hill ave")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.AddressID != "A777" || got.BuildingID != "B777" {
		t.Errorf("identifiers not recovered from reverse geocode: %+v", got)
	}
	if got.Exact {
		t.Error("reverse-resolved result must not be exact")
	}
	if len(geocoder.findCalls) != 2 {
		t.Errorf("expected exactly 2 candidate searches (no deeper recursion), got %d", len(geocoder.findCalls))
	}
}

func TestReverseGeocodeOpenSpaceWins(t *testing.T) {
	geocoder := &fakeGeocoder{
		openSpace: func(float64, float64) (*arcgis.OpenSpaceFeature, error) {
			return &arcgis.OpenSpaceFeature{SiteName: "Boston Common"}, nil
		},
		reverse: func(float64, float64) (*arcgis.ReverseMatch, error) {
			return nil, errors.New("locator unavailable")
		},
	}

	result, err := newTestResolver(geocoder).ReverseGeocode(context.Background(), 42.355, -71.065)
	if err != nil {
		t.Fatalf("ReverseGeocode returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected an open-space result")
	}
	if result.Address != "Boston Common" {
		t.Errorf("Address = %q, want the open-space site name", result.Address)
	}
	if !result.AlwaysUseLatLng || result.Exact {
		t.Errorf("open-space result flags wrong: %+v", result)
	}
	if result.Location.Lat != 42.355 || result.Location.Lng != -71.065 {
		t.Errorf("open-space result must keep the queried coordinate, got %+v", result.Location)
	}
}

func TestReverseGeocodeNoMatchIsNil(t *testing.T) {
	result, err := newTestResolver(&fakeGeocoder{}).ReverseGeocode(context.Background(), 42.0, -71.0)
	if err != nil {
		t.Fatalf("ReverseGeocode returned error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil for a location with no address, got %+v", result)
	}
}

func TestReverseGeocodeSyntheticFallback(t *testing.T) {
	geocoder := &fakeGeocoder{
		reverse: func(float64, float64) (*arcgis.ReverseMatch, error) {
			return &arcgis.ReverseMatch{
				Address:  "7 UNCHARTED WAY, BOSTON, MA, 02121",
				AddrType: arcgis.AddrTypePointAddress,
				Location: models.LatLng{Lat: 42.5, Lng: -71.5},
			}, nil
		},
		// The matched string doesn't round-trip through search.
		find: func(string) ([]arcgis.Candidate, error) { return nil, nil },
	}

	result, err := newTestResolver(geocoder).ReverseGeocode(context.Background(), 42.5001, -71.5001)
	if err != nil {
		t.Fatalf("ReverseGeocode returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a synthetic result")
	}
	if result.Exact || !result.AlwaysUseLatLng {
		t.Errorf("synthetic result flags wrong: %+v", result)
	}
	if result.Location.Lat != 42.5001 {
		t.Errorf("synthetic result must keep the queried coordinate, got %+v", result.Location)
	}
	if result.AddressID != "" {
		t.Errorf("synthetic result must carry no identifiers, got %+v", result)
	}
}

func TestLookupUnitsSortsNumerically(t *testing.T) {
	geocoder := &fakeGeocoder{
		units: func(buildingID string) ([]arcgis.UnitFeature, error) {
			if buildingID != "B42" {
				t.Errorf("buildingID = %q, want B42", buildingID)
			}
			return []arcgis.UnitFeature{
				{BuildingID: "B42", Unit: "3", FullAddress: "764 E FAKE ST, 3, SOUTH BOSTON, MA, 02127", StreetName: "E FAKE ST", StreetNumber: "764"},
				{BuildingID: "B42", Unit: "10", FullAddress: "764 E FAKE ST, 10, SOUTH BOSTON, MA, 02127", StreetName: "E FAKE ST", StreetNumber: "764"},
				{BuildingID: "B42", Unit: "2", FullAddress: "764 E FAKE ST, 2, SOUTH BOSTON, MA, 02127", StreetName: "E FAKE ST", StreetNumber: "764"},
			}, nil
		},
	}

	units, err := newTestResolver(geocoder).LookupUnits(context.Background(), "B42")
	if err != nil {
		t.Fatalf("LookupUnits returned error: %v", err)
	}

	var got []string
	for _, u := range units {
		got = append(got, u.Unit)
	}
	want := []string{"2", "3", "10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unit order = %v, want %v", got, want)
		}
	}
	if units[0].Address != "764 E FAKE ST, 2\nSOUTH BOSTON, MA, 02127" {
		t.Errorf("unit address not formatted for display: %q", units[0].Address)
	}
}
