package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/fetcher"
	"github.com/sells-group/bigaward-cli/internal/model"
)

const (
	defaultPatentsURL = "https://patentscope.wipo.int/search/en/result.jsf"
	defaultPubMedURL  = "https://api.ncbi.nlm.nih.gov/lit/ctxp/v1/pubmed/"
	pubMedArticleURL  = "https://pubmed.ncbi.nlm.nih.gov/"
	defaultRecordsMax = 10
)

// RecordsOption configures a RecordsSearcher.
type RecordsOption func(*RecordsSearcher)

// WithPatentsURL overrides the patent search endpoint. Empty keeps the
// default.
func WithPatentsURL(u string) RecordsOption {
	return func(s *RecordsSearcher) {
		if u != "" {
			s.patentsURL = u
		}
	}
}

// WithPubMedURL overrides the literature search endpoint.
func WithPubMedURL(u string) RecordsOption {
	return func(s *RecordsSearcher) {
		if u != "" {
			s.pubmedURL = u
		}
	}
}

// WithRecordsLimit caps the hits kept per registry.
func WithRecordsLimit(n int) RecordsOption {
	return func(s *RecordsSearcher) {
		if n > 0 {
			s.limit = n
		}
	}
}

// RecordsSearcher looks a company up in the public patent and publication
// registries.
type RecordsSearcher struct {
	doer       fetcher.Doer
	patentsURL string
	pubmedURL  string
	limit      int
}

// NewRecordsSearcher creates a searcher that sends its requests through d.
func NewRecordsSearcher(d fetcher.Doer, opts ...RecordsOption) *RecordsSearcher {
	s := &RecordsSearcher{
		doer:       d,
		patentsURL: defaultPatentsURL,
		pubmedURL:  defaultPubMedURL,
		limit:      defaultRecordsMax,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type patentSearchResponse struct {
	Results []struct {
		PublicationNumber string   `json:"publicationNumber"`
		Title             string   `json:"title"`
		Inventors         []string `json:"inventors"`
		FilingDate        string   `json:"filingDate"`
		Jurisdiction      string   `json:"jurisdiction"`
	} `json:"results"`
}

type pubMedSearchResponse struct {
	Records []struct {
		UID     string `json:"uid"`
		Title   string `json:"title"`
		Source  string `json:"source"`
		PubDate string `json:"pubdate"`
	} `json:"records"`
}

// Search queries both registries for name. A failing registry is logged
// and leaves its list empty; an error is returned only when both fail.
func (s *RecordsSearcher) Search(ctx context.Context, name string) (model.PublicRecords, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.PublicRecords{}, nil
	}

	var out model.PublicRecords
	patents, perr := s.patents(ctx, name)
	if perr != nil {
		zap.L().Warn("source: patent search failed", zap.String("name", name), zap.Error(perr))
	} else {
		out.Patents = patents
	}
	pubs, merr := s.publications(ctx, name)
	if merr != nil {
		zap.L().Warn("source: publication search failed", zap.String("name", name), zap.Error(merr))
	} else {
		out.Publications = pubs
	}

	if perr != nil && merr != nil {
		return model.PublicRecords{}, eris.Wrap(perr, "source: public records")
	}
	return out, nil
}

// patents reads the registry's JSON result list. HTML result pages carry
// titles without publication numbers and are skipped.
func (s *RecordsSearcher) patents(ctx context.Context, name string) ([]model.PatentRecord, error) {
	target := withQuery(s.patentsURL, url.Values{"query": {name}})
	resp, err := s.getJSON(ctx, target)
	if err != nil {
		return nil, eris.Wrap(err, "source: patents")
	}
	if !strings.Contains(resp.ContentType, "json") {
		zap.L().Debug("source: patent search returned no JSON", zap.String("content_type", resp.ContentType))
		return nil, nil
	}

	var body patentSearchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, eris.Wrap(err, "source: decode patents")
	}
	var out []model.PatentRecord
	for _, r := range body.Results {
		if len(out) == s.limit {
			break
		}
		num := strings.TrimSpace(r.PublicationNumber)
		if num == "" {
			continue
		}
		inventors := make([]string, 0, len(r.Inventors))
		for _, inv := range r.Inventors {
			if inv = strings.TrimSpace(inv); inv != "" {
				inventors = append(inventors, inv)
			}
		}
		out = append(out, model.PatentRecord{
			Number:       num,
			Title:        strings.TrimSpace(r.Title),
			Inventors:    inventors,
			FilingYear:   leadingYear(r.FilingDate),
			Jurisdiction: strings.TrimSpace(r.Jurisdiction),
			SourceURL:    target,
		})
	}
	return out, nil
}

func (s *RecordsSearcher) publications(ctx context.Context, name string) ([]model.PublicationRecord, error) {
	target := withQuery(s.pubmedURL, url.Values{"format": {"json"}, "term": {name}})
	resp, err := s.getJSON(ctx, target)
	if err != nil {
		return nil, eris.Wrap(err, "source: publications")
	}

	var body pubMedSearchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, eris.Wrap(err, "source: decode publications")
	}
	var out []model.PublicationRecord
	for _, r := range body.Records {
		if len(out) == s.limit {
			break
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		pr := model.PublicationRecord{
			PubmedID: strings.TrimSpace(r.UID),
			Title:    title,
			Journal:  strings.TrimSpace(r.Source),
			Year:     leadingYear(r.PubDate),
		}
		if pr.PubmedID != "" {
			pr.SourceURL = pubMedArticleURL + pr.PubmedID + "/"
		}
		out = append(out, pr)
	}
	return out, nil
}

func (s *RecordsSearcher) getJSON(ctx context.Context, target string) (*fetcher.Response, error) {
	return s.doer.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}

func withQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// leadingYear reads the year prefix of dates like "2021-03-04" or
// "2022 Mar 3". It returns 0 when there is none.
func leadingYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return y
}
