package delivery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasAllEmirates(t *testing.T) {
	tbl := Default()
	assert.Equal(t, []string{
		"Dubai", "Abu Dhabi", "Sharjah", "Ajman", "Umm Al Quwain", "Ras Al Khaimah", "Fujairah",
	}, tbl.Regions())
	assert.Contains(t, tbl.SubRegions("Dubai"), "Dubai Marina")
	assert.Contains(t, tbl.SubRegions("Fujairah"), "Masafi")
}

func TestFee_MissIsZero(t *testing.T) {
	tbl, err := Load(strings.NewReader(`
- emirate: Dubai
  cities:
    Deira: 15
    JLT: 0
`))
	require.NoError(t, err)

	assert.Equal(t, int64(15), tbl.Fee("Dubai", "Deira"))
	assert.Equal(t, int64(0), tbl.Fee("Dubai", "JLT"))
	assert.Equal(t, int64(0), tbl.Fee("Dubai", "Nowhere"))
	assert.Equal(t, int64(0), tbl.Fee("Atlantis", "Deira"))
	assert.Equal(t, int64(0), tbl.Fee("", ""))
}

func TestLoad_RejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative fee", "- emirate: Dubai\n  cities:\n    Deira: -1\n"},
		{"duplicate region", "- emirate: Dubai\n- emirate: Dubai\n"},
		{"missing name", "- cities:\n    Deira: 1\n"},
		{"not yaml list", "emirate: Dubai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCentroid(t *testing.T) {
	tbl := Default()
	c, ok := tbl.Centroid("Ajman")
	require.True(t, ok)
	assert.InDelta(t, 25.4052, c.Lat, 1e-9)

	_, ok = tbl.Centroid("Atlantis")
	assert.False(t, ok)
}

func TestSubRegions_UnknownRegion(t *testing.T) {
	assert.Nil(t, Default().SubRegions("Atlantis"))
}
