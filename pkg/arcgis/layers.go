package arcgis

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// LiveAddressesByBuilding queries the live-address layer for the habitable
// units of one building. Ordering is the resolver's concern.
func (c *Client) LiveAddressesByBuilding(ctx context.Context, buildingID string) ([]UnitFeature, error) {
	params := url.Values{}
	params.Set("where", fmt.Sprintf("BUILDING_ID='%s'", strings.ReplaceAll(buildingID, "'", "''")))
	params.Set("outFields", "*")
	params.Set("returnGeometry", "true")
	params.Set("outSR", wgs84)

	var env liveAddressEnvelope
	if err := c.get(ctx, c.liveAddressURL+"/query", "liveAddressQuery", params, &env); err != nil {
		return nil, err
	}
	if env.Err != nil {
		return nil, envelopeError("liveAddressQuery", env.Err)
	}

	units := make([]UnitFeature, 0, len(env.Features))
	for _, f := range env.Features {
		units = append(units, UnitFeature{
			BuildingID:       f.Attributes.BuildingID,
			Unit:             f.Attributes.Unit,
			FullAddress:      f.Attributes.FullAddress,
			StreetName:       f.Attributes.StreetName,
			StreetNumber:     f.Attributes.StreetNumber,
			RelationshipType: f.Attributes.RelationshipType,
			Location:         f.Geometry.latLng(),
		})
	}
	return units, nil
}

// OpenSpaceAt runs a spatial-contains query against the open-space layer.
// Returns nil when the point is not inside any open-space polygon.
func (c *Client) OpenSpaceAt(ctx context.Context, lat, lng float64) (*OpenSpaceFeature, error) {
	params := url.Values{}
	params.Set("geometry", fmt.Sprintf("%f,%f", lng, lat))
	params.Set("geometryType", "esriGeometryPoint")
	params.Set("spatialRel", "esriSpatialRelIntersects")
	params.Set("inSR", wgs84)
	params.Set("outFields", "SITE_NAME")
	params.Set("returnGeometry", "false")

	var env openSpaceEnvelope
	if err := c.get(ctx, c.openSpaceURL+"/query", "openSpaceQuery", params, &env); err != nil {
		return nil, err
	}
	if env.Err != nil {
		return nil, envelopeError("openSpaceQuery", env.Err)
	}
	if len(env.Features) == 0 {
		return nil, nil
	}

	return &OpenSpaceFeature{SiteName: env.Features[0].Attributes.SiteName}, nil
}
