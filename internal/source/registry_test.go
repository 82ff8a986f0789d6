package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bigaward-cli/internal/model"
)

func TestParseSeeds(t *testing.T) {
	seeds := ParseSeeds([]map[string]string{
		{
			"Reference Number":    "BIG-001",
			"Name Of The Company": " Acme Biotech Pvt Ltd ",
			"Grant Year":          "2021.0",
			"cin":                 "U73100KA2019PTC123456",
			" Location ":          "Bengaluru",
			"Website":             "acme.in",
		},
		{"Reference Number": "BIG-002", "Name Of The Company": ""},
		{"Name Of The Company": "No Id Labs"},
		{"Reference Number": "BIG-003", "Name Of The Company": "Beta Labs", "Grant Year": "n/a"},
	})

	require.Len(t, seeds, 2)
	assert.Equal(t, "BIG-001", seeds[0].AwardID)
	assert.Equal(t, "Acme Biotech Pvt Ltd", seeds[0].Name)
	assert.Equal(t, 2021, seeds[0].Year)
	assert.Equal(t, "U73100KA2019PTC123456", seeds[0].Registry.CIN)
	assert.Equal(t, "Bengaluru", seeds[0].Registry.Location)
	assert.Equal(t, "acme.in", seeds[0].Registry.WebsiteURL)
	assert.Empty(t, seeds[0].Registry.MCAStatus)

	assert.Equal(t, "BIG-003", seeds[1].AwardID)
	assert.Equal(t, 0, seeds[1].Year)
}

func TestParseYear(t *testing.T) {
	assert.Equal(t, 2019, parseYear("2019"))
	assert.Equal(t, 2019, parseYear("2019.0"))
	assert.Equal(t, 0, parseYear(""))
	assert.Equal(t, 0, parseYear("twenty"))
}

func TestSeedRegistry_Lookup(t *testing.T) {
	seed := model.Seed{AwardID: "BIG-001", Registry: model.RegistryObservation{
		Profile: model.Profile{MCAStatus: "Active"},
	}}
	obs, err := SeedRegistry{}.Lookup(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, "Active", obs.MCAStatus)
}
