package arcgis

import "civicserve-backend/internal/models"

// Locator types assigned by the geocoder to describe how a match was
// derived. PointAddress is a database-backed point; StreetAddress is
// interpolated along a street segment and carries no stable identifier.
const (
	AddrTypePointAddress      = "PointAddress"
	AddrTypeStreetAddress     = "StreetAddress"
	AddrTypeStreetName        = "StreetName"
	AddrTypeIntersection      = "Intersection"
	AddrTypeSegmentAlternate  = "SegmentAlternateName"
	AddrTypeLandmarkAlternate = "LandmarkAlternateName"
)

// Candidate is one raw geocoder match. Ephemeral: produced per search call,
// never persisted.
type Candidate struct {
	Address    string
	Location   models.LatLng
	Score      float64
	AddrType   string
	RefID      string
	AddressID  string
	BuildingID string
	SubUnit    bool
}

// IsExactIntersection reports whether the candidate is a perfect-score
// intersection match, the only exactness signal the payload carries.
func (c Candidate) IsExactIntersection() bool {
	return c.AddrType == AddrTypeIntersection && c.Score >= 100
}

// ReverseMatch is the address-locator side of a reverse geocode.
type ReverseMatch struct {
	Address  string
	AddrType string
	Location models.LatLng
}

// UnitFeature is one row of the live-address layer: a habitable unit keyed
// by its building.
type UnitFeature struct {
	BuildingID       string
	Unit             string
	FullAddress      string
	StreetName       string
	StreetNumber     string
	RelationshipType int
	Location         models.LatLng
}

// OpenSpaceFeature is a park/open-space polygon containing a query point.
type OpenSpaceFeature struct {
	SiteName string
}

// errorBody is the error shape all three ArcGIS endpoints reuse. Every
// response decodes into an envelope that either carries data or this.
type errorBody struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// noMatchCode is what the reverse-geocode endpoint returns when no address
// exists at the location. It is a valid negative result, not a failure.
const noMatchCode = 400

type rawLocation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (l rawLocation) latLng() models.LatLng {
	return models.LatLng{Lat: l.Y, Lng: l.X}
}

type rawCandidate struct {
	Address    string      `json:"address"`
	Location   rawLocation `json:"location"`
	Score      float64     `json:"score"`
	Attributes struct {
		RefID          string `json:"Ref_ID"`
		AddrType       string `json:"Addr_type"`
		AddressID      string `json:"Address_ID"`
		BuildingID     string `json:"Building_ID"`
		SubAddressUnit string `json:"Sub_Address_Unit"`
	} `json:"attributes"`
}

type findCandidatesEnvelope struct {
	Candidates []rawCandidate `json:"candidates"`
	Err        *errorBody     `json:"error"`
}

type reverseEnvelope struct {
	Address *struct {
		MatchAddr string `json:"Match_addr"`
		AddrType  string `json:"Addr_type"`
	} `json:"address"`
	Location *rawLocation `json:"location"`
	Err      *errorBody   `json:"error"`
}

type liveAddressEnvelope struct {
	Features []struct {
		Attributes struct {
			BuildingID       string `json:"BUILDING_ID"`
			Unit             string `json:"UNIT"`
			FullAddress      string `json:"FULL_ADDRESS"`
			StreetName       string `json:"STREET_NAME"`
			StreetNumber     string `json:"STREET_NUMBER"`
			RelationshipType int    `json:"RELATIONSHIP_TYPE"`
		} `json:"attributes"`
		Geometry rawLocation `json:"geometry"`
	} `json:"features"`
	Err *errorBody `json:"error"`
}

type openSpaceEnvelope struct {
	Features []struct {
		Attributes struct {
			SiteName string `json:"SITE_NAME"`
		} `json:"attributes"`
	} `json:"features"`
	Err *errorBody `json:"error"`
}
