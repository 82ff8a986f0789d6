// Package payload turns consolidated observations into ready-to-persist
// records for every downstream table.
package payload

import (
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bigaward-cli/internal/consolidate"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/normalize"
)

// Source tags written to child records.
const (
	SourceAIAgent     = "AI Agent"
	SourceWebsite     = "Website"
	SourcePatentscope = "Patentscope"
	SourcePubMed      = "PubMed"
)

// Role types assigned to people.
const (
	RoleFounder  = "Founder"
	RoleCoreTeam = "Core Team"
	RoleAdvisor  = "Advisor"
)

// DefaultNewsCategory is used when a news item carries no category.
const DefaultNewsCategory = "General"

// ErrEmptyFunding and ErrMalformedAmount mark funding entries that are
// skipped during a build.
var (
	ErrEmptyFunding    = eris.New("payload: empty funding entry")
	ErrMalformedAmount = eris.New("payload: malformed funding amount")
)

// Input is everything observed about one company.
type Input struct {
	AwardID  string
	Name     string
	Year     int
	AI       model.AIObservation
	Registry model.RegistryObservation
	Website  model.WebsiteObservation
	Records  model.PublicRecords
	News     []model.NewsItem
}

// Builder assembles payloads. The zero value is not usable; call NewBuilder.
type Builder struct {
	now func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock used for scrape timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build consolidates the observations in in and returns the candidate
// records for every table. It never fails: malformed funding entries are
// skipped with a warning.
func (b *Builder) Build(in Input) *model.Payloads {
	merged := consolidate.Consolidate([]consolidate.Observation{
		consolidate.FromAI(in.AI),
		consolidate.FromRegistry(in.Registry),
		consolidate.FromWebsite(in.Website),
	})

	return &model.Payloads{
		Company:          []model.Company{b.company(in, merged.Profile)},
		People:           b.people(in, merged.Founders),
		ProductsServices: b.products(in),
		Patents:          b.patents(in),
		Publications:     b.publications(in),
		FundingRounds:    b.funding(in),
		NewsCoverage:     b.news(in),
	}
}

func (b *Builder) company(in Input, p model.Profile) model.Company {
	c := model.Company{
		BigAwardID:        in.AwardID,
		RegisteredName:    normalize.Name(in.Name),
		OriginalAwardee:   model.StrPtr(normalize.Name(p.OriginalAwardee)),
		WebsiteURL:        model.StrPtr(normalize.URL(p.WebsiteURL)),
		CIN:               model.StrPtr(normalize.CIN(p.CIN)),
		IncorporationDate: normalize.Date(p.IncorporationDate),
		Location:          model.StrPtr(normalize.Location(p.Location)),
		MCAStatus:         model.StrPtr(normalize.Text(p.MCAStatus)),
	}
	if in.Year > 0 {
		c.BigAwardYear = model.Ptr(in.Year)
	}
	c.DataQualityScore = Completeness(c)
	return c
}

// Completeness is the share of the six consolidated scalar fields that are
// populated on c, rounded to two decimals.
func Completeness(c model.Company) float64 {
	present := 0
	for _, ok := range []bool{
		c.WebsiteURL != nil,
		c.CIN != nil,
		c.IncorporationDate != nil,
		c.Location != nil,
		c.OriginalAwardee != nil,
		c.MCAStatus != nil,
	} {
		if ok {
			present++
		}
	}
	return normalize.Round2(float64(present) / float64(len(model.ProfileFields)))
}

func (b *Builder) people(in Input, founders []model.Founder) []model.Person {
	var out []model.Person
	for _, f := range founders {
		role := normalize.Text(f.RoleType)
		if role == "" {
			role = RoleFounder
		}
		out = append(out, model.Person{
			BigAwardID:  in.AwardID,
			FullName:    f.FullName,
			Designation: model.StrPtr(normalize.Text(f.Designation)),
			RoleType:    model.Ptr(role),
			Source:      model.Ptr(SourceAIAgent),
		})
	}

	srcURL := model.StrPtr(in.Website.SourceURL)
	for _, group := range []struct {
		role    string
		members []string
	}{
		{RoleCoreTeam, in.Website.Team},
		{RoleAdvisor, in.Website.Advisors},
	} {
		for _, name := range group.members {
			name = normalize.Name(name)
			if name == "" {
				continue
			}
			out = append(out, model.Person{
				BigAwardID: in.AwardID,
				FullName:   name,
				RoleType:   model.Ptr(group.role),
				Source:     model.Ptr(SourceWebsite),
				SourceURL:  srcURL,
			})
		}
	}
	return out
}

func (b *Builder) products(in Input) []model.ProductService {
	var out []model.ProductService
	for _, name := range dedupe(in.Website.Products) {
		out = append(out, model.ProductService{
			BigAwardID:  in.AwardID,
			ProductName: model.Ptr(name),
			Source:      model.Ptr(SourceWebsite),
			SourceURL:   model.StrPtr(in.Website.SourceURL),
		})
	}
	return out
}

// patents lists the website's numbers first. A number the patent registry
// also knows takes the registry's details; registry-only hits follow.
func (b *Builder) patents(in Input) []model.Patent {
	registry := make(map[string]model.PatentRecord, len(in.Records.Patents))
	for _, r := range in.Records.Patents {
		if key := patentKey(r.Number); key != "" {
			if _, ok := registry[key]; !ok {
				registry[key] = r
			}
		}
	}

	var out []model.Patent
	seen := make(map[string]bool)
	for _, num := range dedupe(in.Website.Patents) {
		key := patentKey(num)
		if seen[key] {
			continue
		}
		seen[key] = true
		if r, ok := registry[key]; ok {
			out = append(out, registryPatent(in.AwardID, r))
			continue
		}
		out = append(out, model.Patent{
			BigAwardID:   in.AwardID,
			PatentNumber: num,
			Source:       model.Ptr(SourceWebsite),
			SourceURL:    model.StrPtr(in.Website.SourceURL),
		})
	}
	for _, r := range in.Records.Patents {
		key := patentKey(r.Number)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, registryPatent(in.AwardID, r))
	}
	return out
}

func patentKey(num string) string {
	return strings.ToUpper(strings.Join(strings.Fields(num), ""))
}

func jurisdictionSplit(r rune) bool {
	return r == ',' || r == ';' || unicode.IsSpace(r)
}

func registryPatent(awardID string, r model.PatentRecord) model.Patent {
	p := model.Patent{
		BigAwardID:   awardID,
		PatentNumber: normalize.Text(r.Number),
		Title:        model.StrPtr(normalize.Text(r.Title)),
		Inventors:    model.StrPtr(strings.Join(dedupe(r.Inventors), "; ")),
		Source:       model.Ptr(SourcePatentscope),
		SourceURL:    model.StrPtr(r.SourceURL),
	}
	if r.FilingYear > 0 {
		p.FilingYear = model.Ptr(r.FilingYear)
	}
	if codes := strings.FieldsFunc(strings.ToUpper(r.Jurisdiction), jurisdictionSplit); len(codes) > 0 {
		var indian, foreign bool
		for _, c := range codes {
			if c == "IN" {
				indian = true
			} else {
				foreign = true
			}
		}
		p.IndianJurisdiction = model.Ptr(indian)
		p.ForeignJurisdiction = model.Ptr(foreign)
		p.JurisdictionList = model.Ptr(strings.Join(codes, ", "))
	}
	return p
}

// publications lists the website's titles first, enriched by an exact
// case-insensitive title match in the literature index; index-only hits
// follow.
func (b *Builder) publications(in Input) []model.Publication {
	index := make(map[string]model.PublicationRecord, len(in.Records.Publications))
	for _, r := range in.Records.Publications {
		if key := titleKey(r.Title); key != "" {
			if _, ok := index[key]; !ok {
				index[key] = r
			}
		}
	}

	var out []model.Publication
	seen := make(map[string]bool)
	for _, title := range dedupe(in.Website.Publications) {
		key := titleKey(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		if r, ok := index[key]; ok {
			out = append(out, indexedPublication(in.AwardID, title, r))
			continue
		}
		out = append(out, model.Publication{
			BigAwardID: in.AwardID,
			Title:      model.Ptr(title),
			Source:     model.Ptr(SourceWebsite),
			SourceURL:  model.StrPtr(in.Website.SourceURL),
		})
	}
	for _, r := range in.Records.Publications {
		key := titleKey(r.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, indexedPublication(in.AwardID, normalize.Text(r.Title), r))
	}
	return out
}

func titleKey(title string) string {
	return strings.ToLower(normalize.Text(strings.TrimRight(title, ". ")))
}

func indexedPublication(awardID, title string, r model.PublicationRecord) model.Publication {
	journal := normalize.Text(r.Journal)
	p := model.Publication{
		BigAwardID:   awardID,
		PubmedID:     model.StrPtr(strings.TrimSpace(r.PubmedID)),
		Title:        model.Ptr(title),
		Journal:      model.StrPtr(journal),
		CitationText: model.Ptr(strings.TrimSpace(title + " " + journal)),
		Source:       model.Ptr(SourcePubMed),
		SourceURL:    model.StrPtr(r.SourceURL),
	}
	if r.Year > 0 {
		p.PublicationYear = model.Ptr(r.Year)
	}
	return p
}

func (b *Builder) funding(in Input) []model.FundingRound {
	var out []model.FundingRound
	for i, e := range in.AI.FundingRounds {
		fr, err := fundingRound(in.AwardID, e)
		if err != nil {
			zap.L().Warn("payload: skipping invalid funding entry",
				zap.String("big_award_id", in.AwardID),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		out = append(out, fr)
	}
	return out
}

func fundingRound(awardID string, e model.FundingEntry) (model.FundingRound, error) {
	if e.Empty() {
		return model.FundingRound{}, ErrEmptyFunding
	}
	amountText := strings.TrimSpace(e.Amount)
	amount := normalize.FundingAmount(amountText)
	if amount == nil && strings.IndexFunc(amountText, unicode.IsDigit) >= 0 {
		return model.FundingRound{}, eris.Wrapf(ErrMalformedAmount, "payload: amount %q", amountText)
	}
	return model.FundingRound{
		BigAwardID:    awardID,
		Stage:         model.StrPtr(normalize.Text(e.Stage)),
		AmountINR:     amount,
		SourceName:    model.StrPtr(normalize.Text(e.SourceName)),
		SourceType:    model.StrPtr(normalize.Text(e.SourceType)),
		FundingType:   model.StrPtr(normalize.Text(e.FundingType)),
		AnnouncedDate: normalize.Date(e.AnnouncedDate),
		DataSource:    model.Ptr(SourceAIAgent),
		SourceURL:     model.StrPtr(strings.TrimSpace(e.SourceURL)),
	}, nil
}

func (b *Builder) news(in Input) []model.NewsCoverage {
	now := b.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var out []model.NewsCoverage
	for _, n := range in.News {
		category := normalize.Text(n.NewsCategory)
		if category == "" {
			category = DefaultNewsCategory
		}
		out = append(out, model.NewsCoverage{
			BigAwardID:    in.AwardID,
			Headline:      model.StrPtr(normalize.Text(n.Headline)),
			PublishedDate: normalize.Date(n.PublishedDate),
			NewsCategory:  model.Ptr(category),
			ArticleURL:    model.StrPtr(strings.TrimSpace(n.ArticleURL)),
			ScrapedAt:     today,
		})
	}
	return out
}

// dedupe trims values and drops blanks and exact repeats, keeping order.
func dedupe(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = normalize.Text(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
