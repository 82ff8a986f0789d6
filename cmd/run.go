package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/config"
	"github.com/sells-group/bigaward-cli/internal/cost"
	"github.com/sells-group/bigaward-cli/internal/fetcher"
	"github.com/sells-group/bigaward-cli/internal/gate"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/payload"
	"github.com/sells-group/bigaward-cli/internal/pipeline"
	"github.com/sells-group/bigaward-cli/internal/resilience"
	"github.com/sells-group/bigaward-cli/internal/source"
	"github.com/sells-group/bigaward-cli/internal/store"
	"github.com/sells-group/bigaward-cli/internal/validation"
	anthropicpkg "github.com/sells-group/bigaward-cli/pkg/anthropic"
	"github.com/sells-group/bigaward-cli/pkg/serper"
)

var (
	runMode        string
	runLimit       int
	runDryRun      bool
	runConcurrency int
	runSheet       string
)

var runCmd = &cobra.Command{
	Use:   "run <seeds.xlsx>",
	Short: "Process award companies from a seed spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("mode") {
			cfg.Pipeline.Mode = runMode
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Pipeline.Concurrency = runConcurrency
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		records, err := fetcher.ReadXLSXRecords(args[0], fetcher.XLSXOptions{SheetName: runSheet})
		if err != nil {
			return eris.Wrap(err, "read seeds")
		}
		seeds := selectSeeds(source.ParseSeeds(records), cfg.Pipeline, runLimit)
		zap.L().Info("run: seeds loaded",
			zap.String("path", args[0]),
			zap.Int("rows", len(records)),
			zap.Int("selected", len(seeds)),
			zap.String("mode", cfg.Pipeline.Mode),
		)

		var st store.Store
		if !runDryRun {
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		costs := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
		runner := newRunner(cfg, st, runDryRun, costs)

		total := pipeline.Summary{RunID: runner.RunID()}
		for _, batch := range batches(seeds, cfg.Pipeline.BatchSize) {
			if ctx.Err() != nil {
				total.Skipped += len(batch)
				total.Total += len(batch)
				continue
			}
			sum := runner.Run(ctx, batch)
			total.Total += sum.Total
			total.Succeeded += sum.Succeeded
			total.Failed += sum.Failed
			total.Skipped += sum.Skipped
			total.Elapsed += sum.Elapsed
		}

		zap.L().Info("run: complete",
			zap.String("run_id", total.RunID),
			zap.Int("total", total.Total),
			zap.Int("succeeded", total.Succeeded),
			zap.Int("failed", total.Failed),
			zap.Int("skipped", total.Skipped),
			zap.Duration("elapsed", total.Elapsed),
		)
		zap.L().Info("run: usage", costs.Totals().Fields()...)
		return nil
	},
}

// selectSeeds applies --limit, or the pilot size in pilot mode.
func selectSeeds(seeds []model.Seed, pc config.PipelineConfig, limit int) []model.Seed {
	if limit <= 0 && pc.Mode == "pilot" {
		limit = pc.PilotSize
	}
	if limit > 0 && len(seeds) > limit {
		return seeds[:limit]
	}
	return seeds
}

// batches splits seeds into runs of at most size. Non-positive size yields
// a single batch.
func batches(seeds []model.Seed, size int) [][]model.Seed {
	if len(seeds) == 0 {
		return nil
	}
	if size <= 0 || size >= len(seeds) {
		return [][]model.Seed{seeds}
	}
	var out [][]model.Seed
	for start := 0; start < len(seeds); start += size {
		end := min(start+size, len(seeds))
		out = append(out, seeds[start:end])
	}
	return out
}

func newGate(c *config.Config, reg *validation.Registry) *gate.Engine {
	return gate.New(reg,
		gate.WithThresholds(c.Validation.Thresholds),
		gate.WithErrorCeiling(c.Validation.MaxErrors),
		gate.WithCompanyFloor(c.Validation.MinCompanyScore),
	)
}

func newRunner(c *config.Config, st store.Store, dryRun bool, costs *cost.Tracker) *pipeline.Runner {
	retry := resilience.FromMillis(c.Retry.MaxAttempts, c.Retry.InitialBackoff, c.Retry.MaxBackoff)
	producers := pipeline.Producers{Registry: source.SeedRegistry{}}

	if c.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(c.Anthropic.Key, option.WithRequestTimeout(2*time.Minute))
		producers.AI = source.NewAIExtractor(client, source.AIOptions{
			Model:     c.Anthropic.Model,
			MaxTokens: c.Anthropic.MaxTokens,
			Retry:     retry,
			Costs:     costs,
		})
	} else {
		zap.L().Warn("run: anthropic.key not set, skipping AI observations")
	}

	hf := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.Scrape.UserAgent,
		Timeout:   time.Duration(c.Scrape.TimeoutSecs) * time.Second,
		RPS:       c.Scrape.RPS,
		Retry:     resilience.FromMillis(c.Scrape.MaxRetries, c.Retry.InitialBackoff, c.Retry.MaxBackoff),
	})
	producers.Website = source.NewWebsiteScraper(hf)
	if c.Records.Enabled {
		producers.Records = source.NewRecordsSearcher(hf,
			source.WithPatentsURL(c.Records.PatentsURL),
			source.WithPubMedURL(c.Records.PubMedURL),
			source.WithRecordsLimit(c.Records.Limit),
		)
	}

	if c.Serper.Key != "" {
		client := serper.NewClient(c.Serper.Key,
			serper.WithBaseURL(c.Serper.BaseURL),
			serper.WithRateLimit(c.Serper.RPS),
		)
		producers.News = source.NewNewsClient(client, c.Serper.Country, retry, costs)
	} else {
		zap.L().Warn("run: serper.key not set, skipping news search")
	}

	reg := validation.DefaultRegistry()
	return pipeline.New(producers, payload.NewBuilder(), newGate(c, reg), reg, st, pipeline.Options{
		Validate:         c.Pipeline.EnableValidation,
		NewsLimit:        c.Pipeline.NewsLimit,
		FounderNewsLimit: c.Pipeline.FounderNewsLimit,
		Concurrency:      c.Pipeline.Concurrency,
		DryRun:           dryRun,
		BreakerThreshold: 5,
		BreakerCooldown:  time.Minute,
	})
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "pilot", "run mode: pilot or production")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max companies to process (0 = mode default)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "build and validate without writing to the database")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 1, "companies processed in parallel")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "worksheet name (default: first sheet)")
	rootCmd.AddCommand(runCmd)
}
