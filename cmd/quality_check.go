package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/payload"
	"github.com/sells-group/bigaward-cli/internal/store"
)

var qualityDryRun bool

var qualityCheckCmd = &cobra.Command{
	Use:   "quality-check",
	Short: "Recompute the data quality score of every stored company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scores, err := recomputeQuality(ctx, st, !qualityDryRun)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scored %d companies\n", len(scores))
		return nil
	},
}

// recomputeQuality scores every company row and, when write is set, stores
// the scores that changed.
func recomputeQuality(ctx context.Context, st store.Store, write bool) (map[string]float64, error) {
	rows, err := st.ListCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "quality-check: list companies")
	}

	scores := make(map[string]float64, len(rows))
	changed := make(map[string]float64)
	for _, row := range rows {
		id, _ := row["big_award_id"].(string)
		if id == "" {
			continue
		}
		score := payload.RequiredFieldScore(row)
		scores[id] = score
		if old, ok := row["data_quality_score"].(float64); !ok || old != score {
			changed[id] = score
		}
	}

	zap.L().Info("quality-check: scored companies",
		zap.Int("companies", len(scores)),
		zap.Int("changed", len(changed)),
		zap.Bool("write", write),
	)
	if write && len(changed) > 0 {
		if err := st.UpdateQualityScores(ctx, changed); err != nil {
			return nil, eris.Wrap(err, "quality-check: update scores")
		}
	}
	return scores, nil
}

func init() {
	qualityCheckCmd.Flags().BoolVar(&qualityDryRun, "dry-run", false, "compute scores without writing them")
	rootCmd.AddCommand(qualityCheckCmd)
}
