package validation

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Aliases(t *testing.T) {
	reg := DefaultRegistry()

	pairs := map[string]string{
		"company":           KindCompany,
		"companies":         KindCompany,
		"person":            KindPerson,
		"people":            KindPerson,
		"patent":            KindPatent,
		"patents":           KindPatent,
		"publication":       KindPublication,
		"publications":      KindPublication,
		"product":           KindProduct,
		"products_services": KindProduct,
		"funding":           KindFunding,
		"funding_rounds":    KindFunding,
		"news":              KindNews,
		"news_coverage":     KindNews,
		"extraction_log":    KindExtractionLog,
	}
	for name, kind := range pairs {
		s, err := reg.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, kind, s.Kind, name)
	}
	assert.Len(t, reg.Kinds(), 8)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := DefaultRegistry().Lookup("widgets")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownEntityType))
	assert.Contains(t, err.Error(), `"widgets"`)
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(
		NewSchema("a", []string{"x"}, Text("f")),
		NewSchema("b", []string{"x"}, Text("f")),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewRegistry(NewSchema("", nil))
	assert.Error(t, err)
}

func TestSchemaFields_Order(t *testing.T) {
	s, err := DefaultRegistry().Lookup("news")
	require.NoError(t, err)
	assert.Equal(t, []string{"news_id", "big_award_id", "headline", "published_date", "news_category", "article_url", "scraped_at"}, s.Fields())
}

func TestValidateEntity_ResultPerBinding(t *testing.T) {
	reg := DefaultRegistry()
	results, err := reg.ValidateEntity("company", map[string]any{
		"big_award_id":    "BIG-1",
		"registered_name": "Acme Bio",
		"website_url":     "acme.in",
		"cin":             "bad",
	})
	require.NoError(t, err)

	s, _ := reg.Lookup("company")
	require.Len(t, results, len(s.Bindings))

	byField := map[string]Result{}
	for _, r := range results {
		byField[r.Field] = r
	}
	assert.True(t, byField["registered_name"].Valid)
	assert.Equal(t, SeverityWarning, byField["website_url"].Severity)
	assert.Equal(t, SeverityError, byField["cin"].Severity)
	assert.True(t, byField["location"].Valid)
}

func TestValidateEntity_UnknownType(t *testing.T) {
	_, err := DefaultRegistry().ValidateEntity("nope", nil)
	assert.True(t, eris.Is(err, ErrUnknownEntityType))
}

func TestClean_AppliesSuggestions(t *testing.T) {
	in := map[string]any{
		"big_award_id":    "BIG-1",
		"registered_name": "Acme Bio",
		"website_url":     "acme.in",
		"cin":             "u72900ka2015ptc082520",
		"mca_status":      "Active",
	}
	out, err := DefaultRegistry().Clean("company", in)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.in", out["website_url"])
	assert.Equal(t, "U72900KA2015PTC082520", out["cin"])
	assert.Equal(t, "Active", out["mca_status"])
	assert.Equal(t, "acme.in", in["website_url"], "input is not mutated")
}

func TestClean_CriticalAggregates(t *testing.T) {
	_, err := DefaultRegistry().Clean("people", map[string]any{"full_name": "Jane Doe"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "people", verr.Entity)
	assert.Equal(t, "big_award_id", verr.Field)
	assert.Equal(t, []string{"Required field big_award_id is missing"}, verr.Messages)
	assert.Contains(t, err.Error(), "critical errors in people")
}

func TestClean_ErrorsAreNotCritical(t *testing.T) {
	out, err := DefaultRegistry().Clean("company", map[string]any{
		"big_award_id": "BIG-1",
		"cin":          "bad",
	})
	require.NoError(t, err)
	assert.Equal(t, "bad", out["cin"])
}
