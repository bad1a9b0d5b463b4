package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartafold/geoimport/internal/geo"
)

func strp(s string) *string { return &s }

// ancestryFrom replays a source's region and locality streams into the
// parent-chain graph used for orphan detection, assigning locality ids in
// stream order.
func ancestryFrom(t *testing.T, src DivisionSource) (map[string]struct{}, map[string]string, []LocalityNode) {
	t.Helper()

	regionSet := make(map[string]struct{})
	parentOf := make(map[string]string)

	collect := func(row RegionRow) error {
		regionSet[row.ExternalID] = struct{}{}
		if row.ParentExternalID != nil {
			parentOf[row.ExternalID] = *row.ParentExternalID
		}
		return nil
	}
	require.NoError(t, src.TopRegions(t.Context(), collect))
	require.NoError(t, src.SubRegions(t.Context(), collect))

	var nodes []LocalityNode
	require.NoError(t, src.Localities(t.Context(), func(row LocalityRow) error {
		node := LocalityNode{
			ID:          int64(len(nodes) + 1),
			ExternalID:  row.ExternalID,
			CountryCode: row.CountryCode,
		}
		if row.ParentExternalID != nil {
			node.ParentExternalID = *row.ParentExternalID
			parentOf[row.ExternalID] = *row.ParentExternalID
		}
		nodes = append(nodes, node)
		return nil
	}))
	return regionSet, parentOf, nodes
}

func TestOrphanDetectionAnchoredHierarchy(t *testing.T) {
	lng, lat := -71.06, 42.36
	src := &memSource{
		regions: []RegionRow{
			{ExternalID: "reg-ma", CountryCode: "US", RegionField: strp("US-MA"), Subtype: "region", Name: "Massachusetts"},
		},
		subRegions: []RegionRow{
			{ExternalID: "cty-suffolk", CountryCode: "US", Subtype: "county", Name: "Suffolk", ParentExternalID: strp("reg-ma")},
		},
		localities: []LocalityRow{
			{ExternalID: "loc-boston", ParentExternalID: strp("cty-suffolk"), CountryCode: "US",
				TypeLookup: "locality", Name: "Boston", LocalName: "Boston", Longitude: &lng, Latitude: &lat},
		},
	}

	regionSet, parentOf, nodes := ancestryFrom(t, src)
	result := ResolveOrphans(nodes, regionSet, parentOf, 20)
	assert.Zero(t, result.Total())
	assert.Empty(t, result.HopLimitHits)
}

func TestOrphanSynthesisFallbackRegion(t *testing.T) {
	lng, lat := 55.45, -4.68
	src := &memSource{
		regions: []RegionRow{
			{ExternalID: "reg-ma", CountryCode: "US", RegionField: strp("US-MA"), Subtype: "region", Name: "Massachusetts"},
		},
		localities: []LocalityRow{
			{ExternalID: "loc-victoria", ParentExternalID: strp("loc-mahe"), CountryCode: "SC",
				TypeLookup: "locality", Name: "Victoria", LocalName: "Victoria", Longitude: &lng, Latitude: &lat},
		},
	}

	regionSet, parentOf, nodes := ancestryFrom(t, src)
	policy := geo.DefaultPolicy()

	result := ResolveOrphans(nodes, regionSet, parentOf, 20)
	require.Equal(t, 1, result.Total())
	require.Equal(t, []int64{1}, result.ByCountry["SC"])

	// No explicit synthetic entry for SC, so orphans land in the
	// country-level fallback region named after the country.
	sr := policy.SyntheticRegionFor("SC", "Seychelles")
	assert.Equal(t, "SC-GEN", sr.Code)
	assert.Equal(t, "Seychelles", sr.Name)
	assert.Equal(t, "SC", sr.TargetCountry)
	assert.Equal(t, "synthetic:SC-GEN", SyntheticExternalID(sr.Code))
}

func TestOrphanSynthesisLeavesNoOrphans(t *testing.T) {
	src := &memSource{
		regions: []RegionRow{
			{ExternalID: "reg-ma", CountryCode: "US", RegionField: strp("US-MA"), Subtype: "region", Name: "Massachusetts"},
		},
		localities: []LocalityRow{
			{ExternalID: "loc-anchored", ParentExternalID: strp("reg-ma"), CountryCode: "US", Name: "Boston"},
			{ExternalID: "loc-golan", ParentExternalID: strp("loc-gone"), CountryCode: "XH", Name: "Majdal Shams"},
			{ExternalID: "loc-island", CountryCode: "SC", Name: "Victoria"},
		},
	}

	regionSet, parentOf, nodes := ancestryFrom(t, src)
	policy := geo.DefaultPolicy()

	result := ResolveOrphans(nodes, regionSet, parentOf, 20)
	require.Equal(t, 2, result.Total())

	// Mirror synthesis: register each group's synthetic region and
	// reparent its orphans onto it.
	byID := make(map[int64]*LocalityNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}
	for countryCode, orphanIDs := range result.ByCountry {
		sr := policy.SyntheticRegionFor(countryCode, countryCode)
		regionSet[SyntheticExternalID(sr.Code)] = struct{}{}
		for _, id := range orphanIDs {
			node := byID[id]
			node.ParentExternalID = SyntheticExternalID(sr.Code)
			parentOf[node.ExternalID] = node.ParentExternalID
		}
	}

	after := ResolveOrphans(nodes, regionSet, parentOf, 20)
	assert.Zero(t, after.Total())
	assert.Empty(t, after.HopLimitHits)
}
