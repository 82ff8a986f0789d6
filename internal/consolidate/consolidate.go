// Package consolidate merges independent observations of one company into a
// single profile.
package consolidate

import (
	"strings"

	"github.com/sells-group/bigaward-cli/internal/model"
)

// Observation is what one source reported about a company.
type Observation struct {
	Source   model.Source
	Profile  model.Profile
	Founders []model.Founder
}

// FromAI converts an AI observation.
func FromAI(o model.AIObservation) Observation {
	return Observation{Source: model.SourceAI, Profile: o.Profile, Founders: o.Founders}
}

// FromRegistry converts a registry observation.
func FromRegistry(o model.RegistryObservation) Observation {
	return Observation{Source: model.SourceRegistry, Profile: o.Profile}
}

// FromWebsite converts a website observation. Website team lists are
// persisted separately and do not take part in founder deduplication.
func FromWebsite(o model.WebsiteObservation) Observation {
	return Observation{Source: model.SourceWebsite, Profile: o.Profile}
}

// Result is the consolidated profile.
type Result struct {
	Profile  model.Profile
	Founders []model.Founder
}

// Consolidate picks the most frequent value of each scalar field across obs
// and deduplicates founders by full name. Ties resolve to the value seen
// first, so callers order obs by source priority.
func Consolidate(obs []Observation) Result {
	var res Result
	for _, f := range model.ProfileFields {
		values := make([]string, 0, len(obs))
		for _, o := range obs {
			if v := strings.TrimSpace(o.Profile.Get(f)); v != "" {
				values = append(values, v)
			}
		}
		res.Profile.Set(f, MostCommon(values))
	}
	res.Founders = dedupeFounders(obs)
	return res
}

// MostCommon returns the most frequent element of values, preferring the
// earliest on ties. It returns "" for an empty slice.
func MostCommon(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestN := "", 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if n := counts[v]; n > bestN {
			best, bestN = v, n
		}
	}
	return best
}

func dedupeFounders(obs []Observation) []model.Founder {
	var out []model.Founder
	seen := make(map[string]struct{})
	for _, o := range obs {
		for _, f := range o.Founders {
			name := strings.TrimSpace(f.FullName)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			f.FullName = name
			out = append(out, f)
		}
	}
	return out
}
