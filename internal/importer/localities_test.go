package importer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateInRange(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want bool
	}{
		{"origin", 0, 0, true},
		{"typical point", 42.36, -71.06, true},
		{"poles and antimeridian", 90, 180, true},
		{"southern bounds", -90, -180, true},
		{"latitude too high", 250, 10, false},
		{"latitude below range", -90.5, 10, false},
		{"longitude too high", 10, 180.5, false},
		{"longitude below range", 10, -181, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coordinateInRange(tt.lat, tt.lng))
		})
	}
}

// Pages must reach the writer while the source scan is still running, so
// buffering stays bounded by the page size rather than the dump size.
func TestLocalityPagesFlushDuringScan(t *testing.T) {
	const pageSize = 2
	rows := make([]LocalityRow, 5)
	for i := range rows {
		rows[i] = LocalityRow{ExternalID: fmt.Sprintf("loc-%d", i)}
	}
	src := &memSource{localities: rows}

	produced := 0
	var producedAtFlush []int
	var batchSizes []int
	addRow, flushRows := collectInBatches(pageSize, func(batch []LocalityRow) error {
		producedAtFlush = append(producedAtFlush, produced)
		batchSizes = append(batchSizes, len(batch))
		return nil
	})

	require.NoError(t, src.Localities(t.Context(), func(row LocalityRow) error {
		produced++
		return addRow(row)
	}))
	require.NoError(t, flushRows())

	assert.Equal(t, []int{2, 2, 1}, batchSizes)
	assert.Equal(t, []int{2, 4, 5}, producedAtFlush)
}
