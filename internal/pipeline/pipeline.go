// Package pipeline runs companies through observation, payload building,
// admission, and loading.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/gate"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/payload"
	"github.com/sells-group/bigaward-cli/internal/resilience"
	"github.com/sells-group/bigaward-cli/internal/store"
	"github.com/sells-group/bigaward-cli/internal/validation"
)

// DataTypeFullPipeline is the extraction-log data type of a processed company.
const DataTypeFullPipeline = "full_pipeline"

// Extraction-log statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// AIExtractor produces the language model's observation of a company.
type AIExtractor interface {
	Extract(ctx context.Context, seed model.Seed) (model.AIObservation, error)
}

// WebsiteScraper produces lists scraped from a company website.
type WebsiteScraper interface {
	Scrape(ctx context.Context, url string) (model.WebsiteObservation, error)
}

// RegistryLookup produces the award registry's observation of a company.
type RegistryLookup interface {
	Lookup(ctx context.Context, seed model.Seed) (model.RegistryObservation, error)
}

// NewsSearcher finds press coverage.
type NewsSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.NewsItem, error)
}

// RecordsSearcher looks a company up in public patent and publication
// registries.
type RecordsSearcher interface {
	Search(ctx context.Context, name string) (model.PublicRecords, error)
}

// Producers groups the observation sources. A nil producer is skipped and
// contributes an empty observation.
type Producers struct {
	AI       AIExtractor
	Website  WebsiteScraper
	Registry RegistryLookup
	News     NewsSearcher
	Records  RecordsSearcher
}

// Options tunes a run.
type Options struct {
	// Validate runs the admission gate before loading.
	Validate bool
	// NewsLimit caps company news results. Zero disables the search.
	NewsLimit int
	// FounderNewsLimit caps news results per founder. Zero disables it.
	FounderNewsLimit int
	// Concurrency is the number of seeds processed at once. Default: 1.
	Concurrency int
	// DryRun builds and judges payloads without touching the store.
	DryRun bool
	// BreakerThreshold opens a producer's circuit after this many
	// consecutive failures. Zero disables circuit breaking.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Runner processes seeds. It is safe for concurrent use.
type Runner struct {
	producers Producers
	builder   *payload.Builder
	engine    *gate.Engine
	registry  *validation.Registry
	store     store.Store
	opts      Options
	runID     string

	aiBreaker      *resilience.Breaker
	websiteBreaker *resilience.Breaker
	newsBreaker    *resilience.Breaker
	recordsBreaker *resilience.Breaker
}

// New creates a Runner. st may be nil for dry runs.
func New(p Producers, b *payload.Builder, e *gate.Engine, reg *validation.Registry, st store.Store, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if st == nil {
		opts.DryRun = true
	}
	r := &Runner{
		producers: p,
		builder:   b,
		engine:    e,
		registry:  reg,
		store:     st,
		opts:      opts,
		runID:     uuid.NewString(),
	}
	if opts.BreakerThreshold > 0 {
		r.aiBreaker = resilience.NewBreaker("ai", opts.BreakerThreshold, opts.BreakerCooldown)
		r.websiteBreaker = resilience.NewBreaker("website", opts.BreakerThreshold, opts.BreakerCooldown)
		r.newsBreaker = resilience.NewBreaker("news", opts.BreakerThreshold, opts.BreakerCooldown)
		r.recordsBreaker = resilience.NewBreaker("records", opts.BreakerThreshold, opts.BreakerCooldown)
	}
	return r
}

// RunID identifies this runner's extraction-log rows.
func (r *Runner) RunID() string { return r.runID }

// Outcome is the result of processing one seed.
type Outcome struct {
	AwardID      string
	Status       string
	Accepted     bool
	Report       *gate.Report
	RecordsFound int
	Warnings     []string
	Err          error
}

// Process observes, builds, judges, and loads one company. It never
// returns early on a producer failure; the failed producer contributes an
// empty observation.
func (r *Runner) Process(ctx context.Context, seed model.Seed) Outcome {
	log := zap.L().With(
		zap.String("run_id", r.runID),
		zap.String("big_award_id", seed.AwardID),
		zap.String("company", seed.Name),
	)
	log.Info("pipeline: processing company")
	start := time.Now()

	in, warnings := r.observe(ctx, seed)
	out := Outcome{AwardID: seed.AwardID, Warnings: warnings}

	p := r.builder.Build(in)

	if r.opts.Validate {
		v := r.engine.Judge(seed.AwardID, p)
		out.Report = v.Report
		log.Info("pipeline: validation summary", v.Report.Summary()...)
		if !v.Accepted {
			msg := rejectionMessage(v)
			log.Warn("pipeline: company rejected", zap.String("reason", msg))
			out.Status = StatusFailed
			out.Err = v.Err
			r.logExtraction(ctx, seed.AwardID, StatusFailed, 0, msg, in.Website.SourceURL)
			return out
		}
	}
	out.Accepted = true

	if r.opts.DryRun {
		out.Status = StatusSuccess
		out.RecordsFound = p.Count()
		log.Info("pipeline: dry run, skipping load", zap.Int("records", out.RecordsFound))
		return out
	}

	n, err := r.load(ctx, seed.AwardID, p)
	out.RecordsFound = n
	if err != nil {
		log.Error("pipeline: load failed", zap.Error(err))
		out.Status = StatusFailed
		out.Err = err
		r.logExtraction(ctx, seed.AwardID, StatusFailed, n, err.Error(), in.Website.SourceURL)
		return out
	}

	out.Status = StatusSuccess
	r.logExtraction(ctx, seed.AwardID, StatusSuccess, n, "", in.Website.SourceURL)
	log.Info("pipeline: company complete",
		zap.Int("records", n),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

func rejectionMessage(v gate.Verdict) string {
	if v.Err != nil {
		return "validation crashed: " + v.Err.Error()
	}
	if v.Report != nil && len(v.Report.Recommendations) > 0 {
		return "validation failed: " + strings.Join(v.Report.Recommendations, "; ")
	}
	return "validation failed"
}

func (r *Runner) logExtraction(ctx context.Context, awardID, status string, records int, msg, sourceURL string) {
	if r.opts.DryRun {
		return
	}
	entry := model.ExtractionLog{
		BigAwardID:       awardID,
		RunID:            r.runID,
		DataType:         DataTypeFullPipeline,
		ExtractionStatus: status,
		RecordsFound:     records,
		ErrorMessage:     model.StrPtr(msg),
		SourceURL:        model.StrPtr(sourceURL),
		ExtractedAt:      time.Now().UTC(),
	}
	if err := r.store.LogExtraction(ctx, entry); err != nil {
		zap.L().Error("pipeline: extraction log failed",
			zap.String("big_award_id", awardID),
			zap.Error(err),
		)
	}
}
