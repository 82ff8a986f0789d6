// Package gate scores candidate payloads against the schema registry and
// decides whether a company's records are admissible for storage.
package gate

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/validation"
)

// Status is the overall outcome of a report.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusWarning Status = "WARNING"
	StatusFailed  Status = "FAILED"
)

// EntityResult holds the field results of one record.
type EntityResult struct {
	Index   int                 `json:"entity_index" yaml:"entity_index"`
	Entity  string              `json:"entity_type" yaml:"entity_type"`
	Results []validation.Result `json:"validation_results" yaml:"validation_results"`
	// Valid ignores warnings.
	Valid bool `json:"is_valid" yaml:"is_valid"`
}

// Report is the validation outcome of one company's payloads.
type Report struct {
	AwardID         string                    `json:"company_id" yaml:"company_id"`
	Timestamp       time.Time                 `json:"timestamp" yaml:"timestamp"`
	Status          Status                    `json:"overall_status" yaml:"overall_status"`
	EntityResults   map[string][]EntityResult `json:"entity_results" yaml:"entity_results"`
	QualityScores   map[string]float64        `json:"quality_scores" yaml:"quality_scores"`
	Recommendations []string                  `json:"recommendations" yaml:"recommendations"`
	TotalErrors     int                       `json:"total_errors" yaml:"total_errors"`
	TotalWarnings   int                       `json:"total_warnings" yaml:"total_warnings"`
}

func newReport(awardID string, ts time.Time) *Report {
	return &Report{
		AwardID:         awardID,
		Timestamp:       ts,
		Status:          StatusPassed,
		EntityResults:   make(map[string][]EntityResult),
		QualityScores:   make(map[string]float64),
		Recommendations: []string{},
	}
}

// Summary returns log fields describing r.
func (r *Report) Summary() []zap.Field {
	tables := make([]string, 0, len(r.QualityScores))
	for t := range r.QualityScores {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	fields := []zap.Field{
		zap.String("big_award_id", r.AwardID),
		zap.String("status", string(r.Status)),
		zap.Int("errors", r.TotalErrors),
		zap.Int("warnings", r.TotalWarnings),
		zap.Strings("recommendations", r.Recommendations),
	}
	for _, t := range tables {
		fields = append(fields, zap.Float64("quality."+t, r.QualityScores[t]))
	}
	return fields
}
