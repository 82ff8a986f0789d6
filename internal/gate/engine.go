package gate

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/validation"
)

// Defaults for the rejection safety net.
const (
	DefaultErrorCeiling = 20
	DefaultCompanyFloor = 0.3
	DefaultThreshold    = 0.7

	highErrorCount  = 10
	lowQualityScore = 0.5
)

// DefaultThresholds are the minimum quality scores per schema kind.
func DefaultThresholds() map[string]float64 {
	return map[string]float64{
		validation.KindCompany:     0.6,
		validation.KindPerson:      0.8,
		validation.KindPatent:      0.7,
		validation.KindPublication: 0.7,
		validation.KindProduct:     0.8,
		validation.KindNews:        0.9,
		validation.KindFunding:     0.7,
	}
}

// criticalCompanyFields get a dedicated recommendation when invalid.
var criticalCompanyFields = map[string]bool{
	"registered_name": true,
	"website_url":     true,
}

// Engine validates payload sets and renders admit/reject verdicts.
type Engine struct {
	reg          *validation.Registry
	thresholds   map[string]float64
	errorCeiling int
	companyFloor float64
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides per-kind thresholds. Kinds not in th keep their
// defaults.
func WithThresholds(th map[string]float64) Option {
	return func(e *Engine) {
		for k, v := range th {
			e.thresholds[k] = v
		}
	}
}

// WithErrorCeiling sets the hard error count above which a report is rejected.
func WithErrorCeiling(n int) Option {
	return func(e *Engine) { e.errorCeiling = n }
}

// WithCompanyFloor sets the company quality score below which a report is
// rejected.
func WithCompanyFloor(f float64) Option {
	return func(e *Engine) { e.companyFloor = f }
}

// WithClock sets the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine bound to reg.
func New(reg *validation.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:          reg,
		thresholds:   DefaultThresholds(),
		errorCeiling: DefaultErrorCeiling,
		companyFloor: DefaultCompanyFloor,
		now:          time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Threshold returns the minimum quality score for a schema kind.
func (e *Engine) Threshold(kind string) float64 {
	if th, ok := e.thresholds[kind]; ok {
		return th
	}
	return DefaultThreshold
}

// ValidateProfile validates every non-empty table of p. The error is
// reserved for configuration problems such as an unregistered table.
func (e *Engine) ValidateProfile(awardID string, p *model.Payloads) (bool, *Report, error) {
	report := newReport(awardID, e.now().UTC())
	thresholdMissed := false

	for _, tbl := range p.Tables() {
		if len(tbl.Records) == 0 {
			continue
		}
		schema, err := e.reg.Lookup(tbl.Name)
		if err != nil {
			return false, nil, err
		}

		results := make([]EntityResult, 0, len(tbl.Records))
		valid, total := 0, 0
		for i, rec := range tbl.Records {
			fieldResults, err := e.reg.ValidateEntity(tbl.Name, rec.Fields())
			if err != nil {
				return false, nil, err
			}
			er := EntityResult{Index: i, Entity: tbl.Name, Results: fieldResults, Valid: true}
			for _, r := range fieldResults {
				total++
				switch {
				case r.Valid:
					valid++
				case r.Severity.IsHard():
					report.TotalErrors++
					er.Valid = false
				case r.Severity == validation.SeverityWarning:
					report.TotalWarnings++
				default:
					er.Valid = false
				}
			}
			results = append(results, er)
		}
		report.EntityResults[tbl.Name] = results

		score := 0.0
		if total > 0 {
			score = float64(valid) / float64(total)
		}
		report.QualityScores[tbl.Name] = score

		if th := e.Threshold(schema.Kind); score < th {
			thresholdMissed = true
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("%s quality score (%.2f) below threshold (%.2f)", titleTable(tbl.Name), score, th))
		}
	}

	switch {
	case thresholdMissed || report.TotalErrors > 0:
		report.Status = StatusFailed
	case report.TotalWarnings > 0:
		report.Status = StatusWarning
	}
	report.Recommendations = append(report.Recommendations, recommendations(report)...)

	accepted := !e.ShouldReject(report)
	zap.L().Info("gate: profile validated", append(report.Summary(), zap.Bool("accepted", accepted))...)
	return accepted, report, nil
}

// ShouldReject reports whether r fails the admission gate: a FAILED status,
// too many hard errors, or a near-empty company record.
func (e *Engine) ShouldReject(r *Report) bool {
	if r.Status == StatusFailed {
		return true
	}
	if r.TotalErrors > e.errorCeiling {
		return true
	}
	company, ok := r.QualityScores[model.TableCompany]
	if !ok {
		company = 1.0
	}
	return company < e.companyFloor
}

func recommendations(r *Report) []string {
	var out []string
	if r.TotalErrors > highErrorCount {
		out = append(out, "High error count detected. Consider reviewing data extraction logic.")
	}

	var low []string
	for _, tbl := range model.TableNames {
		if score, ok := r.QualityScores[tbl]; ok && score < lowQualityScore {
			low = append(low, tbl)
		}
	}
	if len(low) > 0 {
		out = append(out, fmt.Sprintf("Low quality data detected in: %s. Consider improving extraction methods.", strings.Join(low, ", ")))
	}

	if company := r.EntityResults[model.TableCompany]; len(company) > 0 {
		for _, res := range company[0].Results {
			if criticalCompanyFields[res.Field] && !res.Valid {
				out = append(out, fmt.Sprintf("Critical field '%s' has issues: %s", res.Field, res.Message))
			}
		}
	}
	return out
}

// titleTable renders "products_services" as "Products_Services".
func titleTable(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "_")
}
