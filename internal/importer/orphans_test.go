package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrphans(t *testing.T) {
	regionSet := map[string]struct{}{
		"region-1": {},
		"county-1": {},
	}
	parentOf := map[string]string{
		"county-1": "region-1",
		"loc-town": "county-1",
		"loc-hood": "loc-town",
	}

	t.Run("direct region parent is anchored", func(t *testing.T) {
		nodes := []LocalityNode{
			{ID: 1, ExternalID: "loc-a", ParentExternalID: "region-1", CountryCode: "US"},
		}
		result := ResolveOrphans(nodes, regionSet, parentOf, 20)
		assert.Zero(t, result.Total())
	})

	t.Run("region reached through locality chain", func(t *testing.T) {
		nodes := []LocalityNode{
			{ID: 2, ExternalID: "loc-hood", ParentExternalID: "loc-town", CountryCode: "US"},
		}
		result := ResolveOrphans(nodes, regionSet, parentOf, 20)
		assert.Zero(t, result.Total())
	})

	t.Run("no parent at all is an orphan", func(t *testing.T) {
		nodes := []LocalityNode{
			{ID: 3, ExternalID: "loc-island", ParentExternalID: "", CountryCode: "SC"},
		}
		result := ResolveOrphans(nodes, regionSet, parentOf, 20)
		require.Equal(t, 1, result.Total())
		assert.Equal(t, []int64{3}, result.ByCountry["SC"])
		assert.Empty(t, result.HopLimitHits)
	})

	t.Run("chain ending outside any region is an orphan", func(t *testing.T) {
		localParents := map[string]string{
			"loc-mid": "loc-top",
		}
		nodes := []LocalityNode{
			{ID: 4, ExternalID: "loc-leaf", ParentExternalID: "loc-mid", CountryCode: "AW"},
		}
		result := ResolveOrphans(nodes, regionSet, localParents, 20)
		require.Equal(t, 1, result.Total())
		assert.Equal(t, []int64{4}, result.ByCountry["AW"])
		assert.Empty(t, result.HopLimitHits)
	})

	t.Run("parent cycle hits the hop limit", func(t *testing.T) {
		cyclic := map[string]string{
			"loc-x": "loc-y",
			"loc-y": "loc-x",
		}
		nodes := []LocalityNode{
			{ID: 5, ExternalID: "loc-x", ParentExternalID: "loc-y", CountryCode: "FR"},
		}
		result := ResolveOrphans(nodes, regionSet, cyclic, 20)
		require.Equal(t, 1, result.Total())
		assert.Equal(t, []int64{5}, result.ByCountry["FR"])
		assert.Equal(t, []int64{5}, result.HopLimitHits)
	})

	t.Run("orphans grouped by country", func(t *testing.T) {
		nodes := []LocalityNode{
			{ID: 10, ExternalID: "a", ParentExternalID: "", CountryCode: "SG"},
			{ID: 11, ExternalID: "b", ParentExternalID: "", CountryCode: "SG"},
			{ID: 12, ExternalID: "c", ParentExternalID: "", CountryCode: "VA"},
			{ID: 13, ExternalID: "d", ParentExternalID: "region-1", CountryCode: "SG"},
		}
		result := ResolveOrphans(nodes, regionSet, parentOf, 20)
		assert.Equal(t, 3, result.Total())
		assert.ElementsMatch(t, []int64{10, 11}, result.ByCountry["SG"])
		assert.Equal(t, []int64{12}, result.ByCountry["VA"])
	})

	t.Run("region exactly at hop limit is found", func(t *testing.T) {
		// Chain of length equal to the limit still resolves.
		parents := map[string]string{"p1": "p2", "p2": "region-1"}
		nodes := []LocalityNode{
			{ID: 20, ExternalID: "leaf", ParentExternalID: "p1", CountryCode: "US"},
		}
		result := ResolveOrphans(nodes, regionSet, parents, 3)
		assert.Zero(t, result.Total())
	})
}
