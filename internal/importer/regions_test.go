package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRegionCode(t *testing.T) {
	tests := []struct {
		name        string
		externalID  string
		regionField string
		want        string
	}{
		{
			name:        "country-prefixed region field",
			externalID:  "0123456789abcdef",
			regionField: "US-CA",
			want:        "CA",
		},
		{
			name:        "long suffix after prefix",
			externalID:  "0123456789abcdef",
			regionField: "GB-ENG",
			want:        "ENG",
		},
		{
			name:        "short region field kept verbatim",
			externalID:  "0123456789abcdef",
			regionField: "CA",
			want:        "CA",
		},
		{
			name:        "three chars without dash kept verbatim",
			externalID:  "0123456789abcdef",
			regionField: "ENG",
			want:        "ENG",
		},
		{
			name:        "dash in wrong position kept verbatim",
			externalID:  "0123456789abcdef",
			regionField: "USCA-X",
			want:        "USCA-X",
		},
		{
			name:       "fallback to external id prefix",
			externalID: "0123456789abcdef",
			want:       "01234567",
		},
		{
			name:       "short external id kept whole",
			externalID: "abc",
			want:       "abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractRegionCode(tt.externalID, tt.regionField))
		})
	}
}
