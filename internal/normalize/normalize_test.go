package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  acme   BIOTECH  pvt ltd ", "Acme Biotech Pvt Ltd"},
		{"jane doe", "Jane Doe"},
		{"", ""},
		{"   ", ""},
		{"émile zola", "Émile Zola"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.in), tt.in)
	}
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "Bengaluru, Karnataka", Location("  Bengaluru,   Karnataka "))
	assert.Equal(t, "", Location(""))
}

func TestURL(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"bare host", "acme.in", "https://acme.in"},
		{"keeps http", "http://acme.in", "http://acme.in"},
		{"keeps https upper", "HTTPS://acme.in", "HTTPS://acme.in"},
		{"trims", "  acme.in/about ", "https://acme.in/about"},
		{"list first non-empty", []string{"", " ", "acme.in"}, "https://acme.in"},
		{"any list", []any{nil, 3, "acme.in"}, "https://acme.in"},
		{"nil", nil, ""},
		{"empty", "", ""},
		{"unsupported type", 42, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.in))
		})
	}
}

func TestDate(t *testing.T) {
	want := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"Mar 15, 2021", "March 15, 2021", "2021-03-15", " 2021-03-15 "} {
		got := Date(in)
		require.NotNil(t, got, in)
		assert.True(t, want.Equal(*got), in)
	}

	assert.Nil(t, Date(""))
	assert.Nil(t, Date("15/03/2021"))
	assert.Nil(t, Date("yesterday"))
}

func TestCIN(t *testing.T) {
	assert.Equal(t, "U72900KA2015PTC082520", CIN("u72900ka2015ptc082520"))
	assert.Equal(t, "U72900KA2015PTC082520", CIN([]any{"", "U72900KA2015PTC082520"}))
	assert.Equal(t, "U72900KA2015PTC082520", CIN(" U72900KA2015PTC082520 "))

	assert.Equal(t, "", CIN("ABCDE"))
	assert.Equal(t, "", CIN("172900KA2015PTC082520"), "class must be a letter")
	assert.Equal(t, "", CIN(nil))
	assert.Equal(t, "", CIN(12345))
}

func TestFundingAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"₹10.5 Cr", 1.05e8},
		{"15 million", 1.5e7},
		{"Rs. 50 lakh", 5e6},
		{"INR 2 crores", 2e7},
		{"$1.2bn", 1.2e9},
		{"1,00,000", 1e5},
		{"2500000", 2.5e6},
		{"3 widgets", 3},
		{"Rs10 crore", 1e8},
		{"INR10Cr", 1e8},
		{"USD2M", 2e6},
		{"Rs.5 lakh", 5e5},
		{"1.5-2 Cr", 1.5e7},
		{"1 to 2 crore", 1e7},
		{"10–12 lakhs", 1e6},
	}
	for _, tt := range tests {
		got := FundingAmount(tt.in)
		require.NotNil(t, got, tt.in)
		assert.InDelta(t, tt.want, *got, 0.001, tt.in)
	}

	assert.Nil(t, FundingAmount(""))
	assert.Nil(t, FundingAmount("undisclosed"))
	assert.Nil(t, FundingAmount("₹"))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.67, Round2(4.0/6.0))
	assert.Equal(t, 0.17, Round2(1.0/6.0))
	assert.Equal(t, 1.0, Round2(1))
}
