package services

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"civicserve-backend/internal/models"
	"civicserve-backend/internal/transformers"
	"civicserve-backend/pkg/arcgis"
	"civicserve-backend/pkg/logger"
)

// Geocoder is the slice of the ArcGIS client the resolver depends on.
type Geocoder interface {
	FindAddressCandidates(ctx context.Context, query string) ([]arcgis.Candidate, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*arcgis.ReverseMatch, error)
	OpenSpaceAt(ctx context.Context, lat, lng float64) (*arcgis.OpenSpaceFeature, error)
	LiveAddressesByBuilding(ctx context.Context, buildingID string) ([]arcgis.UnitFeature, error)
}

// AddressResolver turns free text or a coordinate into ranked canonical
// addresses. The pipeline is state-free per call; the only shared state is
// the geocoder client underneath.
type AddressResolver struct {
	geocoder  Geocoder
	addrTrans transformers.AddressTransformer
}

func NewAddressResolver(geocoder Geocoder, addrTrans transformers.AddressTransformer) *AddressResolver {
	return &AddressResolver{
		geocoder:  geocoder,
		addrTrans: addrTrans,
	}
}

// Search geocodes free text into a ranked, de-duplicated list of canonical
// addresses.
func (r *AddressResolver) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return r.search(ctx, query, false)
}

// fromReverse marks a search launched from inside ReverseGeocode. That
// search must not reverse-geocode interpolated candidates again: the
// recursion is intentionally one level deep.
func (r *AddressResolver) search(ctx context.Context, query string, fromReverse bool) ([]models.SearchResult, error) {
	candidates, err := r.geocoder.FindAddressCandidates(ctx, query)
	if err != nil {
		return nil, err
	}

	ranked := rankCandidates(candidates)

	results := make([]models.SearchResult, 0, len(ranked))
	for _, c := range ranked {
		result, err := r.normalizeCandidate(ctx, c, fromReverse)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// rankCandidates applies the filter, gate, dedup, and sort passes in a
// fixed order. The order is load-bearing: the dedup passes keep the first
// occurrence, so reordering changes which duplicate survives.
func rankCandidates(candidates []arcgis.Candidate) []arcgis.Candidate {
	// Sub-address units are handled separately via LookupUnits.
	kept := make([]arcgis.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.SubUnit {
			kept = append(kept, c)
		}
	}

	// Exactness gate 1: a database-backed point match beats everything
	// derived by interpolation.
	if anyCandidate(kept, func(c arcgis.Candidate) bool { return c.AddrType == arcgis.AddrTypePointAddress }) {
		kept = filterCandidates(kept, func(c arcgis.Candidate) bool { return c.AddrType == arcgis.AddrTypePointAddress })
	}
	// Exactness gate 2: a perfect intersection beats fuzzy ones.
	if anyCandidate(kept, arcgis.Candidate.IsExactIntersection) {
		kept = filterCandidates(kept, arcgis.Candidate.IsExactIntersection)
	}

	// Dedup by reference id, then by building id. A missing building id is
	// always unique so un-linked candidates are preserved.
	kept = uniqueCandidatesBy(kept, func(c arcgis.Candidate) string { return c.RefID })
	kept = uniqueCandidatesBy(kept, func(c arcgis.Candidate) string { return c.BuildingID })

	// Sort: score descending, then locator-type priority, then address.
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := locatorPriority(a.AddrType), locatorPriority(b.AddrType); pa != pb {
			return pa < pb
		}
		return a.Address < b.Address
	})

	// Final dedup by exact coordinate merges duplicate intersections
	// (1st St & 2nd St vs 2nd St & 1st St).
	return uniqueCandidatesBy(kept, func(c arcgis.Candidate) string {
		return strconv.FormatFloat(c.Location.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Location.Lng, 'f', -1, 64)
	})
}

// locatorPriority ranks locator types for score ties: exact points above
// intersections above interpolated addresses above bare street names.
func locatorPriority(addrType string) int {
	switch addrType {
	case arcgis.AddrTypePointAddress:
		return 0
	case arcgis.AddrTypeIntersection:
		return 1
	case arcgis.AddrTypeStreetAddress:
		return 2
	case arcgis.AddrTypeSegmentAlternate:
		return 3
	case arcgis.AddrTypeLandmarkAlternate:
		return 4
	case arcgis.AddrTypeStreetName:
		return 5
	default:
		return 6
	}
}

func anyCandidate(candidates []arcgis.Candidate, pred func(arcgis.Candidate) bool) bool {
	for _, c := range candidates {
		if pred(c) {
			return true
		}
	}
	return false
}

func filterCandidates(candidates []arcgis.Candidate, pred func(arcgis.Candidate) bool) []arcgis.Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// uniqueCandidatesBy keeps the first candidate per key. An empty key never
// collides.
func uniqueCandidatesBy(candidates []arcgis.Candidate, key func(arcgis.Candidate) string) []arcgis.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0:0]
	for _, c := range candidates {
		k := key(c)
		if k != "" {
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, c)
	}
	return out
}

// normalizeCandidate turns one surviving candidate into a SearchResult.
// Interpolated street-address matches have no stable identifier, so they
// are reverse-geocoded to the nearest real address instead of returning
// the guess directly.
func (r *AddressResolver) normalizeCandidate(ctx context.Context, c arcgis.Candidate, fromReverse bool) (models.SearchResult, error) {
	if c.AddrType == arcgis.AddrTypeStreetAddress && !fromReverse {
		resolved, err := r.ReverseGeocode(ctx, c.Location.Lat, c.Location.Lng)
		if err != nil {
			return models.SearchResult{}, err
		}
		if resolved != nil {
			resolved.Exact = false
			return *resolved, nil
		}
		// Nothing at that coordinate either; fall through to the guess.
	}

	return models.SearchResult{
		Location:        c.Location,
		Address:         r.addrTrans.FormatAddress(c.Address),
		AddressID:       c.AddressID,
		BuildingID:      c.BuildingID,
		Exact:           c.AddrType == arcgis.AddrTypePointAddress,
		AlwaysUseLatLng: c.AddrType == arcgis.AddrTypeIntersection,
	}, nil
}

// ReverseGeocode resolves a coordinate to a canonical address. The
// open-space containment query and the address locator run in parallel;
// a containing open space wins immediately, without waiting for the
// locator.
func (r *AddressResolver) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.SearchResult, error) {
	type openSpaceReply struct {
		feature *arcgis.OpenSpaceFeature
		err     error
	}
	type reverseReply struct {
		match *arcgis.ReverseMatch
		err   error
	}

	openCh := make(chan openSpaceReply, 1)
	revCh := make(chan reverseReply, 1)

	go func() {
		feature, err := r.geocoder.OpenSpaceAt(ctx, lat, lng)
		openCh <- openSpaceReply{feature: feature, err: err}
	}()
	go func() {
		match, err := r.geocoder.ReverseGeocode(ctx, lat, lng)
		revCh <- reverseReply{match: match, err: err}
	}()

	open := <-openCh
	if open.err == nil && open.feature != nil {
		// Open space takes precedence; drain the locator reply so its
		// goroutine is never abandoned mid-send, but don't wait for it.
		go func() {
			if reply := <-revCh; reply.err != nil {
				logger.GlobalLogger.Debugf("discarded reverse geocode error after open-space match: %v", reply.err)
			}
		}()
		return &models.SearchResult{
			Location:        models.LatLng{Lat: lat, Lng: lng},
			Address:         open.feature.SiteName,
			Exact:           false,
			AlwaysUseLatLng: true,
		}, nil
	}

	rev := <-revCh
	if open.err != nil {
		return nil, open.err
	}
	if rev.err != nil {
		return nil, rev.err
	}
	if rev.match == nil {
		// No address at this location: a valid negative result.
		return nil, nil
	}

	// The reverse endpoint omits address/building identifiers; recover
	// them by searching for the matched address string.
	results, err := r.search(ctx, rev.match.Address, true)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		result := results[0]
		result.Exact = false
		return &result, nil
	}

	// The matched string doesn't round-trip through search; return a
	// synthetic lat/lng-only result.
	return &models.SearchResult{
		Location:        models.LatLng{Lat: lat, Lng: lng},
		Address:         r.addrTrans.FormatAddress(rev.match.Address),
		Exact:           false,
		AlwaysUseLatLng: true,
	}, nil
}

// LookupUnits lists the habitable units of one building in walk-up order:
// relationship type, street name, street number, then unit label, with
// numeric labels compared as numbers. This ordering is a user-facing
// contract.
func (r *AddressResolver) LookupUnits(ctx context.Context, buildingID string) ([]models.UnitResult, error) {
	features, err := r.geocoder.LiveAddressesByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(features, func(i, j int) bool {
		a, b := features[i], features[j]
		if a.RelationshipType != b.RelationshipType {
			return a.RelationshipType < b.RelationshipType
		}
		if a.StreetName != b.StreetName {
			return a.StreetName < b.StreetName
		}
		if a.StreetNumber != b.StreetNumber {
			return naturalLess(a.StreetNumber, b.StreetNumber)
		}
		return naturalLess(a.Unit, b.Unit)
	})

	units := make([]models.UnitResult, 0, len(features))
	for _, f := range features {
		units = append(units, models.UnitResult{
			BuildingID: f.BuildingID,
			Unit:       f.Unit,
			Address:    r.addrTrans.FormatAddress(f.FullAddress),
			Location:   f.Location,
		})
	}
	return units, nil
}

// naturalLess compares unit/number labels numerically when both parse as
// integers ("2" before "10"), falling back to case-insensitive text.
func naturalLess(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return strings.ToUpper(a) < strings.ToUpper(b)
	}
}
