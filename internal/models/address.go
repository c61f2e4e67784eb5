package models

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchResult is the portal's canonical address shape, produced by ranking
// and normalizing geocoder candidates.
type SearchResult struct {
	Location LatLng `json:"location"`
	// Address is the formatted, multi-line address string.
	Address string `json:"address"`
	// AddressID is the city address database identifier, when the match is
	// backed by one.
	AddressID string `json:"addressId,omitempty"`
	// BuildingID links the address to its building for unit lookups.
	BuildingID string `json:"buildingId,omitempty"`
	// Exact is true only for database-backed point matches. It is always
	// false when the result required a reverse-geocode fallback.
	Exact bool `json:"exact"`
	// AlwaysUseLatLng is true when the address string does not round-trip
	// through forward search (intersections, open-space names), so callers
	// must submit the coordinate instead.
	AlwaysUseLatLng bool `json:"alwaysUseLatLng"`
}

// UnitResult is one habitable unit within a building.
type UnitResult struct {
	BuildingID string `json:"buildingId"`
	Unit       string `json:"unit"`
	Address    string `json:"address"`
	Location   LatLng `json:"location"`
}
