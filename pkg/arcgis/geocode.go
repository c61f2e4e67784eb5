package arcgis

import (
	"context"
	"fmt"
	"net/url"
)

// FindAddressCandidates runs the forward geocoder on free text and returns
// raw candidates in upstream order. Ranking belongs to the resolver.
func (c *Client) FindAddressCandidates(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("SingleLine", query)
	params.Set("outFields", "Ref_ID,Addr_type,Address_ID,Building_ID,Sub_Address_Unit")
	params.Set("maxLocations", "50")
	params.Set("outSR", wgs84)

	var env findCandidatesEnvelope
	if err := c.get(ctx, c.geocoderURL+"/findAddressCandidates", "findAddressCandidates", params, &env); err != nil {
		return nil, err
	}
	if env.Err != nil {
		return nil, envelopeError("findAddressCandidates", env.Err)
	}

	candidates := make([]Candidate, 0, len(env.Candidates))
	for _, raw := range env.Candidates {
		candidates = append(candidates, Candidate{
			Address:    raw.Address,
			Location:   raw.Location.latLng(),
			Score:      raw.Score,
			AddrType:   raw.Attributes.AddrType,
			RefID:      raw.Attributes.RefID,
			AddressID:  raw.Attributes.AddressID,
			BuildingID: raw.Attributes.BuildingID,
			SubUnit:    raw.Attributes.SubAddressUnit != "",
		})
	}
	return candidates, nil
}

// ReverseGeocode resolves a coordinate to the nearest address or
// intersection. A "no match" response is a valid negative result and
// returns nil; any other upstream error is surfaced.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*ReverseMatch, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lng, lat))
	params.Set("outSR", wgs84)

	var env reverseEnvelope
	if err := c.get(ctx, c.geocoderURL+"/reverseGeocode", "reverseGeocode", params, &env); err != nil {
		return nil, err
	}
	if env.Err != nil {
		if env.Err.Code == noMatchCode {
			return nil, nil
		}
		return nil, envelopeError("reverseGeocode", env.Err)
	}
	if env.Address == nil || env.Location == nil {
		return nil, nil
	}

	return &ReverseMatch{
		Address:  env.Address.MatchAddr,
		AddrType: env.Address.AddrType,
		Location: env.Location.latLng(),
	}, nil
}
