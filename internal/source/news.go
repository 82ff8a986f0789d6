package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bigaward-cli/internal/cost"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/resilience"
	"github.com/sells-group/bigaward-cli/pkg/serper"
)

// NewsClient searches recent press for a company or person.
type NewsClient struct {
	client  serper.Client
	country string
	retry   resilience.RetryConfig
	costs   *cost.Tracker
}

// NewNewsClient creates a news searcher. country is the two-letter market
// passed to the search API; empty leaves it unset. costs may be nil.
func NewNewsClient(client serper.Client, country string, retry resilience.RetryConfig, costs *cost.Tracker) *NewsClient {
	retry.ShouldRetry = func(err error) bool {
		return serper.IsRetryable(err) || resilience.IsTransient(err)
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("news", "search")
	}
	return &NewsClient{client: client, country: country, retry: retry, costs: costs}
}

// Search returns up to limit news items for query, deduplicated by URL.
func (n *NewsClient) Search(ctx context.Context, query string, limit int) ([]model.NewsItem, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 || query == "" {
		return nil, nil
	}

	resp, err := resilience.DoVal(ctx, n.retry, func(ctx context.Context) (*serper.NewsResponse, error) {
		return n.client.News(ctx, serper.NewsRequest{Query: query, Country: n.country, Num: limit})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "source: news search %q", query)
	}
	n.costs.Search()

	seen := make(map[string]bool, len(resp.News))
	items := make([]model.NewsItem, 0, len(resp.News))
	for _, r := range resp.News {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		link := strings.TrimSpace(r.Link)
		if link != "" {
			if seen[link] {
				continue
			}
			seen[link] = true
		}
		items = append(items, model.NewsItem{
			Headline:      title,
			ArticleURL:    link,
			PublishedDate: strings.TrimSpace(r.Date),
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}
