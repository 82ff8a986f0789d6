// Package source holds the producers that observe a company: the language
// model extractor, the website scraper, the news search, and the seed
// registry.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/cost"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/resilience"
	"github.com/sells-group/bigaward-cli/pkg/anthropic"
)

const aiSystemPrompt = `You are a biotech research assistant covering Indian startups that won a BIRAC BIG award.
Given a company, answer with exactly one JSON object and nothing else:
{
  "website_url": "official website URL",
  "cin": "21 character Corporate Identification Number",
  "incorporation_date": "YYYY-MM-DD",
  "location": "city, state",
  "original_awardee": "person or entity that received the award",
  "mca_status": "Active, Strike Off, ...",
  "founders": [{"full_name": "", "designation": "", "role_type": "Founder"}],
  "products_services": ["product or service name"],
  "funding_rounds": [{"stage": "", "amount": "", "source_name": "", "source_type": "", "funding_type": "", "announced_date": "", "source_url": ""}]
}
Use "" or [] for anything you do not know. Do not guess identifiers.`

// AIOptions configures the extractor.
type AIOptions struct {
	Model     string
	MaxTokens int64
	Retry     resilience.RetryConfig
	// Costs records token usage when set.
	Costs *cost.Tracker
}

// AIExtractor asks the language model for a structured company profile.
type AIExtractor struct {
	client   anthropic.Client
	opts     AIOptions
	validate *validator.Validate
}

// NewAIExtractor creates an extractor.
func NewAIExtractor(client anthropic.Client, opts AIOptions) *AIExtractor {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	opts.Retry.ShouldRetry = func(err error) bool {
		return anthropic.IsRetryable(err) || resilience.IsTransient(err)
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("ai", "create_message")
	}
	return &AIExtractor{client: client, opts: opts, validate: validator.New()}
}

// Extract returns the model's observation of seed.
func (a *AIExtractor) Extract(ctx context.Context, seed model.Seed) (model.AIObservation, error) {
	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       a.opts.Model,
		MaxTokens:   a.opts.MaxTokens,
		System:      []anthropic.SystemBlock{{Text: aiSystemPrompt, Cached: true}},
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt(seed)}},
		Temperature: &temp,
	}

	resp, err := resilience.DoVal(ctx, a.opts.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return model.AIObservation{}, eris.Wrapf(err, "source: ai extract %s", seed.AwardID)
	}
	u := resp.Usage
	usd := a.opts.Costs.Message(a.opts.Model, u.InputTokens, u.OutputTokens, u.CacheCreationInputTokens, u.CacheReadInputTokens)
	zap.L().Debug("source: ai usage",
		zap.String("big_award_id", seed.AwardID),
		zap.String("model", a.opts.Model),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", usd),
	)

	obs, err := ParseAIResponse(resp.Text())
	if err != nil {
		return model.AIObservation{}, eris.Wrapf(err, "source: ai extract %s", seed.AwardID)
	}
	obs.Founders = a.validFounders(seed.AwardID, obs.Founders)
	return obs, nil
}

func userPrompt(seed model.Seed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %q\n", seed.Name)
	if seed.Year > 0 {
		fmt.Fprintf(&b, "BIG award year: %d\n", seed.Year)
	}
	if seed.AwardID != "" {
		fmt.Fprintf(&b, "Award reference: %s\n", seed.AwardID)
	}
	return b.String()
}

func (a *AIExtractor) validFounders(awardID string, in []model.Founder) []model.Founder {
	out := make([]model.Founder, 0, len(in))
	for _, f := range in {
		f.FullName = strings.TrimSpace(f.FullName)
		if err := a.validate.Struct(f); err != nil {
			zap.L().Warn("source: dropping invalid founder",
				zap.String("big_award_id", awardID),
				zap.String("full_name", f.FullName),
				zap.Error(err),
			)
			continue
		}
		out = append(out, f)
	}
	return out
}

// ParseAIResponse decodes the first JSON object in text. Scalar fields may
// arrive as strings, numbers, or lists; lists may arrive as a single string.
func ParseAIResponse(text string) (model.AIObservation, error) {
	raw, ok := firstJSONObject(text)
	if !ok {
		return model.AIObservation{}, eris.New("source: no JSON object in model response")
	}

	var r aiResponse
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return model.AIObservation{}, eris.Wrap(err, "source: decode model response")
	}

	obs := model.AIObservation{
		Profile: model.Profile{
			WebsiteURL:        string(r.WebsiteURL),
			CIN:               string(r.CIN),
			IncorporationDate: string(r.IncorporationDate),
			Location:          string(r.Location),
			OriginalAwardee:   string(r.OriginalAwardee),
			MCAStatus:         string(r.MCAStatus),
		},
		ProductsServices: r.ProductsServices,
	}
	for _, f := range r.Founders {
		obs.Founders = append(obs.Founders, model.Founder{
			FullName:    string(f.FullName),
			Designation: string(f.Designation),
			RoleType:    string(f.RoleType),
		})
	}
	for _, f := range r.FundingRounds {
		obs.FundingRounds = append(obs.FundingRounds, model.FundingEntry{
			Stage:         string(f.Stage),
			Amount:        string(f.Amount),
			SourceName:    string(f.SourceName),
			SourceType:    string(f.SourceType),
			FundingType:   string(f.FundingType),
			AnnouncedDate: string(f.AnnouncedDate),
			SourceURL:     string(f.SourceURL),
		})
	}
	return obs, nil
}

type aiResponse struct {
	WebsiteURL        flexString     `json:"website_url"`
	Website           flexString     `json:"website"`
	CIN               flexString     `json:"cin"`
	IncorporationDate flexString     `json:"incorporation_date"`
	Location          flexString     `json:"location"`
	OriginalAwardee   flexString     `json:"original_awardee"`
	MCAStatus         flexString     `json:"mca_status"`
	Founders          []flexFounder  `json:"founders"`
	ProductsServices  flexList       `json:"products_services"`
	FundingRounds     []fundingEntry `json:"funding_rounds"`
}

// UnmarshalJSON accepts "website" as an alias of "website_url".
func (r *aiResponse) UnmarshalJSON(b []byte) error {
	type plain aiResponse
	if err := json.Unmarshal(b, (*plain)(r)); err != nil {
		return err
	}
	if r.WebsiteURL == "" {
		r.WebsiteURL = r.Website
	}
	return nil
}

type fundingEntry struct {
	Stage         flexString `json:"stage"`
	Amount        flexString `json:"amount"`
	SourceName    flexString `json:"source_name"`
	SourceType    flexString `json:"source_type"`
	FundingType   flexString `json:"funding_type"`
	AnnouncedDate flexString `json:"announced_date"`
	SourceURL     flexString `json:"source_url"`
}

// flexString decodes strings, numbers, booleans, and lists of those. Lists
// are joined with ", ". null decodes to "".
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = flexString(stringify(v))
	return nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return fmt.Sprint(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := stringify(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// flexList decodes a list of strings or a single string.
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s := stringify(e); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	default:
		if s := stringify(x); s != "" {
			*l = []string{s}
		} else {
			*l = nil
		}
	}
	return nil
}

// flexFounder decodes either a bare name or an object.
type flexFounder struct {
	FullName    flexString `json:"full_name"`
	Designation flexString `json:"designation"`
	RoleType    flexString `json:"role_type"`
}

func (f *flexFounder) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*f = flexFounder{FullName: flexString(strings.TrimSpace(name))}
		return nil
	}
	type plain flexFounder
	return json.Unmarshal(b, (*plain)(f))
}

// firstJSONObject returns the first balanced {...} in text, skipping braces
// inside string literals.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
