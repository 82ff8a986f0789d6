package gate

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/model"
)

// Verdict is the admission decision for one company. Err is set when the
// report could not be computed and the company was rejected automatically.
type Verdict struct {
	Accepted bool
	Report   *Report
	Err      error
}

// Judge validates p and always returns a verdict. Configuration errors and
// panics inside validation become an automatic rejection with a synthesized
// report.
func (e *Engine) Judge(awardID string, p *model.Payloads) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			err := eris.Errorf("gate: validation panicked: %v", r)
			v = e.crashed(awardID, err)
		}
	}()

	if p == nil {
		return e.crashed(awardID, eris.New("gate: nil payloads"))
	}

	accepted, report, err := e.ValidateProfile(awardID, p)
	if err != nil {
		return e.crashed(awardID, eris.Wrap(err, "gate: validate profile"))
	}
	return Verdict{Accepted: accepted, Report: report}
}

func (e *Engine) crashed(awardID string, err error) Verdict {
	zap.L().Error("gate: validation crashed",
		zap.String("big_award_id", awardID),
		zap.Error(err),
	)
	report := newReport(awardID, e.now().UTC())
	report.Status = StatusFailed
	report.Recommendations = []string{fmt.Sprintf("validation crashed: %v", err)}
	return Verdict{Accepted: false, Report: report, Err: err}
}
