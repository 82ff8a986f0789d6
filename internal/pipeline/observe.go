package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/payload"
	"github.com/sells-group/bigaward-cli/internal/resilience"
)

// observe collects every producer's observation of seed. Failures are
// returned as warnings and leave that observation empty.
func (r *Runner) observe(ctx context.Context, seed model.Seed) (payload.Input, []string) {
	in := payload.Input{AwardID: seed.AwardID, Name: seed.Name, Year: seed.Year}
	var warnings []string
	warn := func(producer string, err error) {
		zap.L().Warn("pipeline: producer failed, using empty observation",
			zap.String("big_award_id", seed.AwardID),
			zap.String("producer", producer),
			zap.Error(err),
		)
		warnings = append(warnings, fmt.Sprintf("%s: %v", producer, err))
	}

	if r.producers.Registry != nil {
		reg, err := r.producers.Registry.Lookup(ctx, seed)
		if err != nil {
			warn("registry", err)
		} else {
			in.Registry = reg
		}
	}

	if r.producers.AI != nil {
		ai, err := resilience.Call(ctx, r.aiBreaker, func(ctx context.Context) (model.AIObservation, error) {
			return r.producers.AI.Extract(ctx, seed)
		})
		if err != nil {
			warn("ai", err)
		} else {
			in.AI = ai
		}
	}

	if r.producers.Website != nil {
		if url := websiteURL(in); url != "" {
			web, err := resilience.Call(ctx, r.websiteBreaker, func(ctx context.Context) (model.WebsiteObservation, error) {
				return r.producers.Website.Scrape(ctx, url)
			})
			if err != nil {
				warn("website", err)
			} else {
				in.Website = web
			}
		}
	}

	if r.producers.Records != nil && strings.TrimSpace(seed.Name) != "" {
		recs, err := resilience.Call(ctx, r.recordsBreaker, func(ctx context.Context) (model.PublicRecords, error) {
			return r.producers.Records.Search(ctx, seed.Name)
		})
		if err != nil {
			warn("records", err)
		} else {
			in.Records = recs
		}
	}

	if r.producers.News != nil {
		in.News = r.news(ctx, seed.Name, in.AI.Founders, warn)
	}

	return in, warnings
}

// websiteURL prefers the model's answer over the registry's.
func websiteURL(in payload.Input) string {
	if in.AI.WebsiteURL != "" {
		return in.AI.WebsiteURL
	}
	return in.Registry.WebsiteURL
}

// news searches for the company and then each founder. Results keep the
// first occurrence of each article URL.
func (r *Runner) news(ctx context.Context, name string, founders []model.Founder, warn func(string, error)) []model.NewsItem {
	type query struct {
		text  string
		limit int
	}
	queries := []query{{name, r.opts.NewsLimit}}
	for _, f := range founders {
		queries = append(queries, query{f.FullName, r.opts.FounderNewsLimit})
	}

	seen := make(map[string]bool)
	var out []model.NewsItem
	for _, q := range queries {
		q.text = strings.TrimSpace(q.text)
		if q.limit <= 0 || q.text == "" {
			continue
		}
		items, err := resilience.Call(ctx, r.newsBreaker, func(ctx context.Context) ([]model.NewsItem, error) {
			return r.producers.News.Search(ctx, q.text, q.limit)
		})
		if err != nil {
			warn("news", err)
			continue
		}
		for _, it := range items {
			if it.ArticleURL != "" {
				if seen[it.ArticleURL] {
					continue
				}
				seen[it.ArticleURL] = true
			}
			out = append(out, it)
		}
	}
	return out
}
