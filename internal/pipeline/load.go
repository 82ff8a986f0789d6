package pipeline

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/store"
	"github.com/sells-group/bigaward-cli/internal/validation"
)

// load cleans and persists p. The company row goes first; when it fails
// no child table is touched. Child table failures are collected and do not
// stop the remaining tables. A table whose records fail for a reason other
// than validation is reported and left untouched. It returns the number of
// rows written.
func (r *Runner) load(ctx context.Context, awardID string, p *model.Payloads) (int, error) {
	tables := p.Tables()

	company, dropped := r.clean(awardID, tables[0])
	if len(company) == 0 {
		if len(dropped) > 0 {
			return 0, eris.Wrap(dropped[0], "pipeline: clean company")
		}
		return 0, eris.New("pipeline: no company record")
	}
	id, err := r.store.UpsertCompany(ctx, company[0])
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: upsert company")
	}

	written := 1
	var errs []error
	for _, t := range tables[1:] {
		rows, dropped := r.clean(id, t)
		if err := firstNonValidation(dropped); err != nil {
			errs = append(errs, eris.Wrapf(err, "pipeline: clean %s", t.Name))
			continue
		}
		if len(rows) == 0 && !replaces(t.Name) {
			continue
		}
		if err := r.write(ctx, id, t.Name, rows); err != nil {
			errs = append(errs, eris.Wrapf(err, "pipeline: load %s", t.Name))
			continue
		}
		written += len(rows)
	}
	return written, errors.Join(errs...)
}

// clean runs each record through the validation registry and applies the
// suggested values. Records with a critical failure are dropped.
func (r *Runner) clean(awardID string, t model.Table) ([]store.Row, []error) {
	rows := make([]store.Row, 0, len(t.Records))
	var dropped []error
	for _, rec := range t.Records {
		cleaned, err := r.registry.Clean(t.Name, rec.Fields())
		if err != nil {
			var verr *validation.ValidationError
			if errors.As(err, &verr) {
				zap.L().Warn("pipeline: dropping invalid record",
					zap.String("big_award_id", awardID),
					zap.String("table", t.Name),
					zap.Error(err),
				)
			} else {
				zap.L().Error("pipeline: clean failed",
					zap.String("big_award_id", awardID),
					zap.String("table", t.Name),
					zap.Error(err),
				)
			}
			dropped = append(dropped, err)
			continue
		}
		rows = append(rows, store.Row(cleaned))
	}
	return rows, dropped
}

func firstNonValidation(errs []error) error {
	for _, err := range errs {
		var verr *validation.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
	}
	return nil
}

// replaces reports whether the table is replaced wholesale per company, so
// an empty list still clears earlier rows.
func replaces(table string) bool {
	return table == model.TablePeople || table == model.TableProductsServices
}

func (r *Runner) write(ctx context.Context, awardID, table string, rows []store.Row) error {
	switch table {
	case model.TablePeople:
		return r.store.ReplacePeople(ctx, awardID, rows)
	case model.TableProductsServices:
		return r.store.ReplaceProducts(ctx, awardID, rows)
	case model.TablePatents:
		return r.store.UpsertPatents(ctx, awardID, rows)
	case model.TablePublications:
		return r.store.UpsertPublications(ctx, awardID, rows)
	case model.TableFundingRounds:
		return r.store.InsertFundingRounds(ctx, rows)
	case model.TableNewsCoverage:
		return r.store.InsertNews(ctx, rows)
	}
	return eris.Errorf("pipeline: unknown table %s", table)
}
