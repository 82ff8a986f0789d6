package model

import "time"

// Record is a ready-to-persist row for one downstream table.
type Record interface {
	// Fields returns the row keyed by column name. Null columns map to nil.
	Fields() map[string]any
}

// Company is the root entity, keyed by its award reference.
type Company struct {
	BigAwardID        string     `json:"big_award_id"`
	RegisteredName    string     `json:"registered_name"`
	OriginalAwardee   *string    `json:"original_awardee"`
	BigAwardYear      *int       `json:"big_award_year"`
	WebsiteURL        *string    `json:"website_url"`
	CIN               *string    `json:"cin"`
	IncorporationDate *time.Time `json:"incorporation_date"`
	Location          *string    `json:"location"`
	MCAStatus         *string    `json:"mca_status"`
	DataQualityScore  float64    `json:"data_quality_score"`
}

// Fields implements Record.
func (c Company) Fields() map[string]any {
	return map[string]any{
		"big_award_id":       c.BigAwardID,
		"registered_name":    c.RegisteredName,
		"original_awardee":   nullable(c.OriginalAwardee),
		"big_award_year":     nullable(c.BigAwardYear),
		"website_url":        nullable(c.WebsiteURL),
		"cin":                nullable(c.CIN),
		"incorporation_date": nullable(c.IncorporationDate),
		"location":           nullable(c.Location),
		"mca_status":         nullable(c.MCAStatus),
		"data_quality_score": c.DataQualityScore,
	}
}

// Person is a founder, team member, or advisor of a company.
type Person struct {
	BigAwardID  string  `json:"big_award_id"`
	FullName    string  `json:"full_name"`
	Designation *string `json:"designation"`
	RoleType    *string `json:"role_type"`
	Source      *string `json:"source"`
	SourceURL   *string `json:"source_url"`
}

// Fields implements Record.
func (p Person) Fields() map[string]any {
	return map[string]any{
		"big_award_id": p.BigAwardID,
		"full_name":    p.FullName,
		"designation":  nullable(p.Designation),
		"role_type":    nullable(p.RoleType),
		"source":       nullable(p.Source),
		"source_url":   nullable(p.SourceURL),
	}
}

// Patent is keyed by its patent number.
type Patent struct {
	BigAwardID          string  `json:"big_award_id"`
	PatentNumber        string  `json:"patent_number"`
	PatentType          *string `json:"patent_type"`
	Title               *string `json:"title"`
	Inventors           *string `json:"inventors"`
	FilingYear          *int    `json:"filing_year"`
	IndianJurisdiction  *bool   `json:"indian_jurisdiction"`
	ForeignJurisdiction *bool   `json:"foreign_jurisdiction"`
	JurisdictionList    *string `json:"jurisdiction_list"`
	Source              *string `json:"source"`
	SourceURL           *string `json:"source_url"`
}

// Fields implements Record.
func (p Patent) Fields() map[string]any {
	return map[string]any{
		"big_award_id":         p.BigAwardID,
		"patent_number":        p.PatentNumber,
		"patent_type":          nullable(p.PatentType),
		"title":                nullable(p.Title),
		"inventors":            nullable(p.Inventors),
		"filing_year":          nullable(p.FilingYear),
		"indian_jurisdiction":  nullable(p.IndianJurisdiction),
		"foreign_jurisdiction": nullable(p.ForeignJurisdiction),
		"jurisdiction_list":    nullable(p.JurisdictionList),
		"source":               nullable(p.Source),
		"source_url":           nullable(p.SourceURL),
	}
}

// Publication is a paper or citation attributed to a company.
type Publication struct {
	BigAwardID      string  `json:"big_award_id"`
	PubmedID        *string `json:"pubmed_id"`
	Title           *string `json:"title"`
	Journal         *string `json:"journal"`
	PublicationYear *int    `json:"publication_year"`
	CitationText    *string `json:"citation_text"`
	Source          *string `json:"source"`
	SourceURL       *string `json:"source_url"`
}

// Fields implements Record.
func (p Publication) Fields() map[string]any {
	return map[string]any{
		"big_award_id":     p.BigAwardID,
		"pubmed_id":        nullable(p.PubmedID),
		"title":            nullable(p.Title),
		"journal":          nullable(p.Journal),
		"publication_year": nullable(p.PublicationYear),
		"citation_text":    nullable(p.CitationText),
		"source":           nullable(p.Source),
		"source_url":       nullable(p.SourceURL),
	}
}

// ProductService is a product or service line.
type ProductService struct {
	BigAwardID       string  `json:"big_award_id"`
	ProductName      *string `json:"product_name"`
	DevelopmentStage *string `json:"development_stage"`
	Source           *string `json:"source"`
	SourceURL        *string `json:"source_url"`
}

// Fields implements Record.
func (p ProductService) Fields() map[string]any {
	return map[string]any{
		"big_award_id":      p.BigAwardID,
		"product_name":      nullable(p.ProductName),
		"development_stage": nullable(p.DevelopmentStage),
		"source":            nullable(p.Source),
		"source_url":        nullable(p.SourceURL),
	}
}

// FundingRound is one announced or reported raise.
type FundingRound struct {
	BigAwardID    string     `json:"big_award_id"`
	Stage         *string    `json:"stage"`
	AmountINR     *float64   `json:"amount_inr"`
	SourceName    *string    `json:"source_name"`
	SourceType    *string    `json:"source_type"`
	FundingType   *string    `json:"funding_type"`
	AnnouncedDate *time.Time `json:"announced_date"`
	DataSource    *string    `json:"data_source"`
	SourceURL     *string    `json:"source_url"`
}

// Fields implements Record.
func (f FundingRound) Fields() map[string]any {
	return map[string]any{
		"big_award_id":   f.BigAwardID,
		"stage":          nullable(f.Stage),
		"amount_inr":     nullable(f.AmountINR),
		"source_name":    nullable(f.SourceName),
		"source_type":    nullable(f.SourceType),
		"funding_type":   nullable(f.FundingType),
		"announced_date": nullable(f.AnnouncedDate),
		"data_source":    nullable(f.DataSource),
		"source_url":     nullable(f.SourceURL),
	}
}

// NewsCoverage is one news article mentioning a company.
type NewsCoverage struct {
	BigAwardID    string     `json:"big_award_id"`
	Headline      *string    `json:"headline"`
	PublishedDate *time.Time `json:"published_date"`
	NewsCategory  *string    `json:"news_category"`
	ArticleURL    *string    `json:"article_url"`
	ScrapedAt     time.Time  `json:"scraped_at"`
}

// Fields implements Record.
func (n NewsCoverage) Fields() map[string]any {
	return map[string]any{
		"big_award_id":   n.BigAwardID,
		"headline":       nullable(n.Headline),
		"published_date": nullable(n.PublishedDate),
		"news_category":  nullable(n.NewsCategory),
		"article_url":    nullable(n.ArticleURL),
		"scraped_at":     n.ScrapedAt,
	}
}

// Extraction statuses.
const (
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
)

// ExtractionLog records the outcome of processing one company. It is
// written for rejected companies too, so it has no foreign key.
type ExtractionLog struct {
	LogID            int64     `json:"log_id,omitempty"`
	BigAwardID       string    `json:"big_award_id"`
	RunID            string    `json:"run_id,omitempty"`
	DataType         string    `json:"data_type"`
	ExtractionStatus string    `json:"extraction_status"`
	RecordsFound     int       `json:"records_found"`
	ErrorMessage     *string   `json:"error_message"`
	SourceURL        *string   `json:"source_url"`
	ExtractedAt      time.Time `json:"extracted_at"`
}

// Fields implements Record.
func (l ExtractionLog) Fields() map[string]any {
	return map[string]any{
		"big_award_id":      l.BigAwardID,
		"run_id":            l.RunID,
		"data_type":         l.DataType,
		"extraction_status": l.ExtractionStatus,
		"records_found":     l.RecordsFound,
		"error_message":     nullable(l.ErrorMessage),
		"source_url":        nullable(l.SourceURL),
		"extracted_at":      l.ExtractedAt,
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// StrPtr returns nil for an empty string, otherwise a pointer to s.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
