package payload

import (
	"strings"

	"github.com/sells-group/bigaward-cli/internal/normalize"
)

// RequiredFields are the company columns counted by RequiredFieldScore.
var RequiredFields = []string{
	"registered_name",
	"website_url",
	"cin",
	"incorporation_date",
	"location",
	"mca_status",
}

// RequiredFieldScore is the share of RequiredFields populated in a stored
// company row, rounded to two decimals.
func RequiredFieldScore(row map[string]any) float64 {
	present := 0
	for _, f := range RequiredFields {
		switch v := row[f].(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) != "" {
				present++
			}
		default:
			present++
		}
	}
	return normalize.Round2(float64(present) / float64(len(RequiredFields)))
}
