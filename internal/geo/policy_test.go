package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_Valid(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
}

func TestDefaultPolicy_Continents(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		country   string
		continent string
	}{
		{"FR", "EU"},
		{"US", "NA"},
		{"JP", "AS"},
		{"BR", "SA"},
		{"AU", "OC"},
		{"EG", "AF"},
		{"AQ", "AN"},
		{"XW", "AS"}, // disputed territories carry a continent too
	}
	for _, tt := range tests {
		got, ok := p.ContinentFor(tt.country)
		require.True(t, ok, "country %s", tt.country)
		assert.Equal(t, tt.continent, got, "country %s", tt.country)
	}

	_, ok := p.ContinentFor("ZZ")
	assert.False(t, ok)
}

func TestDefaultPolicy_Remap(t *testing.T) {
	p := DefaultPolicy()

	for _, src := range []string{"XW", "XH", "XZ"} {
		target, ok := p.RemapTarget(src)
		require.True(t, ok, "source %s", src)
		assert.Equal(t, "IL", target)
	}

	// Gaza is intentionally not remapped.
	_, ok := p.RemapTarget("XG")
	assert.False(t, ok)
}

func TestSyntheticRegionFor(t *testing.T) {
	p := DefaultPolicy()

	t.Run("explicit entry", func(t *testing.T) {
		sr := p.SyntheticRegionFor("XH", "Golan Heights")
		assert.Equal(t, "IL-GOLAN", sr.Code)
		assert.Equal(t, "Golan Heights", sr.Name)
		assert.Equal(t, "IL", sr.TargetCountry)
	})

	t.Run("shared region", func(t *testing.T) {
		aw := p.SyntheticRegionFor("AW", "Aruba")
		cw := p.SyntheticRegionFor("CW", "Curacao")
		assert.Equal(t, "DUTCH-CARIBBEAN", aw.Code)
		assert.Equal(t, aw.Code, cw.Code)
		assert.Equal(t, "AW", aw.TargetCountry)
		assert.Equal(t, "CW", cw.TargetCountry)
	})

	t.Run("fallback uses country name", func(t *testing.T) {
		sr := p.SyntheticRegionFor("ZZ", "Nowhere")
		assert.Equal(t, "ZZ-GEN", sr.Code)
		assert.Equal(t, "Nowhere", sr.Name)
		assert.Equal(t, "ZZ", sr.TargetCountry)
	})
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{
			name:    "bad country code",
			mutate:  func(p *Policy) { p.ContinentByCountry["FRA"] = "EU" },
			wantErr: "invalid country code",
		},
		{
			name:    "unknown continent",
			mutate:  func(p *Policy) { p.ContinentByCountry["FR"] = "QQ" },
			wantErr: "unknown continent",
		},
		{
			name:    "remap to self",
			mutate:  func(p *Policy) { p.CountryRemap["FR"] = "FR" },
			wantErr: "targets itself",
		},
		{
			name:    "chained remap",
			mutate:  func(p *Policy) { p.CountryRemap["IL"] = "US" },
			wantErr: "is itself remapped",
		},
		{
			name:    "incomplete synthetic region",
			mutate:  func(p *Policy) { p.SyntheticRegions["FR"] = SyntheticRegion{Code: "FR-GEN"} },
			wantErr: "incomplete synthetic region",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPolicyFile(t *testing.T) {
	t.Run("merges overrides onto defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		data := `
remap:
  XG: IL
synthetic_regions:
  ZZ:
    code: ZZ-CUSTOM
    name: Custom Region
    target_country: ZZ
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		p, err := LoadPolicyFile(path)
		require.NoError(t, err)

		// Override applied.
		target, ok := p.RemapTarget("XG")
		require.True(t, ok)
		assert.Equal(t, "IL", target)

		sr := p.SyntheticRegionFor("ZZ", "ignored")
		assert.Equal(t, "ZZ-CUSTOM", sr.Code)

		// Defaults preserved.
		target, ok = p.RemapTarget("XW")
		require.True(t, ok)
		assert.Equal(t, "IL", target)
		continent, ok := p.ContinentFor("FR")
		require.True(t, ok)
		assert.Equal(t, "EU", continent)
	})

	t.Run("rejects invalid override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("remap:\n  IL: IL\n"), 0o644))

		_, err := LoadPolicyFile(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicyFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
