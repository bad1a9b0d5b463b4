package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameASCII(t *testing.T) {
	tests := []struct {
		name      string
		display   string
		localName string
		want      string
	}{
		{"plain ascii", "Paris", "Paris", "Paris"},
		{"folded display name", "Zürich", "Zürich", "Zurich"},
		{"stacked diacritics", "São Paulo", "São Paulo", "Sao Paulo"},
		{"falls back to local name", "東京", "Tokyo", "Tokyo"},
		{"falls back to folded local name", "東京", "Tōkyō", "Tokyo"},
		{"keeps display when both fold away", "東京", "東京", "東京"},
		{"keeps cyrillic display", "Москва", "Москва", "Москва"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameASCII(tt.display, tt.localName))
		})
	}
}
