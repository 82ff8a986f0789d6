package source

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/model"
)

// Seed sheet headers.
const (
	HeaderAwardID           = "Reference Number"
	HeaderName              = "Name Of The Company"
	HeaderYear              = "Grant Year"
	HeaderCIN               = "CIN"
	HeaderIncorporationDate = "Incorporation Date"
	HeaderLocation          = "Location"
	HeaderMCAStatus         = "MCA Status"
	HeaderOriginalAwardee   = "Original Awardee"
	HeaderWebsite           = "Website"
)

// SeedRegistry answers registry lookups from the columns of the seed row.
type SeedRegistry struct{}

// Lookup returns the registry observation carried on seed.
func (SeedRegistry) Lookup(_ context.Context, seed model.Seed) (model.RegistryObservation, error) {
	return seed.Registry, nil
}

// ParseSeeds maps spreadsheet records to seeds. Header matching ignores case
// and surrounding space. Rows without an award id or company name are
// skipped.
func ParseSeeds(records []map[string]string) []model.Seed {
	seeds := make([]model.Seed, 0, len(records))
	for i, rec := range records {
		get := lookup(rec)
		seed := model.Seed{
			AwardID: get(HeaderAwardID),
			Name:    get(HeaderName),
			Year:    parseYear(get(HeaderYear)),
		}
		if seed.AwardID == "" || seed.Name == "" {
			zap.L().Warn("source: skipping seed row without id or name",
				zap.Int("row", i+2),
				zap.String("big_award_id", seed.AwardID),
				zap.String("name", seed.Name),
			)
			continue
		}
		seed.Registry.Profile = model.Profile{
			WebsiteURL:        get(HeaderWebsite),
			CIN:               get(HeaderCIN),
			IncorporationDate: get(HeaderIncorporationDate),
			Location:          get(HeaderLocation),
			OriginalAwardee:   get(HeaderOriginalAwardee),
			MCAStatus:         get(HeaderMCAStatus),
		}
		seeds = append(seeds, seed)
	}
	return seeds
}

func lookup(rec map[string]string) func(string) string {
	folded := make(map[string]string, len(rec))
	for k, v := range rec {
		folded[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return func(header string) string {
		return folded[strings.ToLower(header)]
	}
}

// parseYear accepts "2021" and spreadsheet floats like "2021.0".
func parseYear(s string) int {
	if s == "" {
		return 0
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
