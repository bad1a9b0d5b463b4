package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is an in-memory DivisionSource for exercising import logic
// without a dump or a DuckDB instance.
type memSource struct {
	countries  []CountryRow
	regions    []RegionRow
	subRegions []RegionRow
	localities []LocalityRow

	countryBoundaries  []BoundaryRow
	regionBoundaries   []BoundaryRow
	localityBoundaries []BoundaryRow

	primaryNames []NameRow
	commonNames  []NameRow
	ruleNames    []NameRow

	closed bool
}

var _ DivisionSource = (*memSource)(nil)

func replay[T any](rows []T, fn func(T) error) error {
	for _, row := range rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *memSource) Countries(_ context.Context, fn func(CountryRow) error) error {
	return replay(s.countries, fn)
}

func (s *memSource) TopRegions(_ context.Context, fn func(RegionRow) error) error {
	return replay(s.regions, fn)
}

func (s *memSource) SubRegions(_ context.Context, fn func(RegionRow) error) error {
	return replay(s.subRegions, fn)
}

func (s *memSource) Localities(_ context.Context, fn func(LocalityRow) error) error {
	return replay(s.localities, fn)
}

func (s *memSource) HasBoundaries() bool {
	return len(s.countryBoundaries)+len(s.regionBoundaries)+len(s.localityBoundaries) > 0
}

func (s *memSource) CountryBoundaries(_ context.Context, fn func(BoundaryRow) error) error {
	return replay(s.countryBoundaries, fn)
}

func (s *memSource) RegionBoundaries(_ context.Context, fn func(BoundaryRow) error) error {
	return replay(s.regionBoundaries, fn)
}

func (s *memSource) LocalityBoundaries(_ context.Context, fn func(BoundaryRow) error) error {
	return replay(s.localityBoundaries, fn)
}

func (s *memSource) PrimaryNames(_ context.Context, _ []string, fn func(NameRow) error) error {
	return replay(s.primaryNames, fn)
}

func (s *memSource) CommonNames(_ context.Context, _ []string, fn func(NameRow) error) error {
	return replay(s.commonNames, fn)
}

func (s *memSource) RuleNames(_ context.Context, _ []string, fn func(NameRow) error) error {
	return replay(s.ruleNames, fn)
}

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

func TestMemSourceStopsOnCallbackError(t *testing.T) {
	src := &memSource{
		localities: []LocalityRow{
			{ExternalID: "a"},
			{ExternalID: "b"},
			{ExternalID: "c"},
		},
	}

	boom := errors.New("boom")
	var seen []string
	err := src.Localities(t.Context(), func(row LocalityRow) error {
		seen = append(seen, row.ExternalID)
		if row.ExternalID == "b" {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, seen)
}
