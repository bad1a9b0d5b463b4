package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierCache_Lookups(t *testing.T) {
	c := NewIdentifierCache()
	c.PutCountry("FR", CountryRef{ID: 1, ContinentID: 4})
	c.PutRegion("ext-region-1", 10)
	c.PutLocality("ext-loc-1", 100)

	ref, ok := c.Country("FR")
	require.True(t, ok)
	assert.Equal(t, int64(1), ref.ID)
	assert.Equal(t, int64(4), ref.ContinentID)

	id, ok := c.Region("ext-region-1")
	require.True(t, ok)
	assert.Equal(t, int64(10), id)

	id, ok = c.Locality("ext-loc-1")
	require.True(t, ok)
	assert.Equal(t, int64(100), id)

	_, ok = c.Country("DE")
	assert.False(t, ok)

	countries, regions, localities := c.Counts()
	assert.Equal(t, 1, countries)
	assert.Equal(t, 1, regions)
	assert.Equal(t, 1, localities)
}

func TestIdentifierCache_StaleMissesEverything(t *testing.T) {
	c := NewIdentifierCache()
	c.PutCountry("FR", CountryRef{ID: 1, ContinentID: 4})
	c.PutRegion("ext-region-1", 10)
	c.PutLocality("ext-loc-1", 100)

	c.MarkStale()
	assert.True(t, c.Stale())

	_, ok := c.Country("FR")
	assert.False(t, ok, "stale cache must miss country lookups")
	_, ok = c.Region("ext-region-1")
	assert.False(t, ok, "stale cache must miss region lookups")
	_, ok = c.Locality("ext-loc-1")
	assert.False(t, ok, "stale cache must miss locality lookups")
}

func TestIdentifierCache_WriteToStalePanics(t *testing.T) {
	c := NewIdentifierCache()
	c.MarkStale()

	assert.Panics(t, func() { c.PutCountry("FR", CountryRef{ID: 1}) })
	assert.Panics(t, func() { c.PutRegion("x", 1) })
	assert.Panics(t, func() { c.PutLocality("x", 1) })
}

func TestIdentifierCache_DropCountry(t *testing.T) {
	c := NewIdentifierCache()
	c.PutCountry("XW", CountryRef{ID: 7, ContinentID: 3})

	c.DropCountry("XW")
	_, ok := c.Country("XW")
	assert.False(t, ok)
}
