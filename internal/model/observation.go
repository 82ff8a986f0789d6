package model

// Source identifies the producer of an observation.
type Source string

const (
	SourceAI       Source = "ai"
	SourceRegistry Source = "registry"
	SourceWebsite  Source = "website"
)

// ProfileField names one of the consolidated scalar fields.
type ProfileField string

const (
	FieldWebsiteURL        ProfileField = "website_url"
	FieldCIN               ProfileField = "cin"
	FieldIncorporationDate ProfileField = "incorporation_date"
	FieldLocation          ProfileField = "location"
	FieldOriginalAwardee   ProfileField = "original_awardee"
	FieldMCAStatus         ProfileField = "mca_status"
)

// ProfileFields is the fixed scalar field set, in column order.
var ProfileFields = []ProfileField{
	FieldWebsiteURL,
	FieldCIN,
	FieldIncorporationDate,
	FieldLocation,
	FieldOriginalAwardee,
	FieldMCAStatus,
}

// Profile holds raw scalar values as observed by one source. An empty
// string means the source did not report the field.
type Profile struct {
	WebsiteURL        string `json:"website_url"`
	CIN               string `json:"cin"`
	IncorporationDate string `json:"incorporation_date"`
	Location          string `json:"location"`
	OriginalAwardee   string `json:"original_awardee"`
	MCAStatus         string `json:"mca_status"`
}

// Get returns the raw value of f.
func (p Profile) Get(f ProfileField) string {
	switch f {
	case FieldWebsiteURL:
		return p.WebsiteURL
	case FieldCIN:
		return p.CIN
	case FieldIncorporationDate:
		return p.IncorporationDate
	case FieldLocation:
		return p.Location
	case FieldOriginalAwardee:
		return p.OriginalAwardee
	case FieldMCAStatus:
		return p.MCAStatus
	}
	return ""
}

// Set assigns v to f.
func (p *Profile) Set(f ProfileField, v string) {
	switch f {
	case FieldWebsiteURL:
		p.WebsiteURL = v
	case FieldCIN:
		p.CIN = v
	case FieldIncorporationDate:
		p.IncorporationDate = v
	case FieldLocation:
		p.Location = v
	case FieldOriginalAwardee:
		p.OriginalAwardee = v
	case FieldMCAStatus:
		p.MCAStatus = v
	}
}

// Founder is a person reported by the AI producer.
type Founder struct {
	FullName    string `json:"full_name" validate:"required,max=255"`
	Designation string `json:"designation" validate:"max=255"`
	RoleType    string `json:"role_type" validate:"max=50"`
}

// FundingEntry is a raw funding round as reported by the AI producer.
type FundingEntry struct {
	Stage         string `json:"stage"`
	Amount        string `json:"amount"`
	SourceName    string `json:"source_name"`
	SourceType    string `json:"source_type"`
	FundingType   string `json:"funding_type"`
	AnnouncedDate string `json:"announced_date"`
	SourceURL     string `json:"source_url"`
}

// Empty reports whether the entry carries no information.
func (e FundingEntry) Empty() bool {
	return e == FundingEntry{}
}

// AIObservation is the structured answer of the AI extraction model.
type AIObservation struct {
	Profile
	Founders         []Founder      `json:"founders"`
	ProductsServices []string       `json:"products_services"`
	FundingRounds    []FundingEntry `json:"funding_rounds"`
}

// RegistryObservation carries scalar fields from the award registry.
type RegistryObservation struct {
	Profile
}

// WebsiteObservation holds lists scraped from the company website.
type WebsiteObservation struct {
	Profile
	Team         []string `json:"team"`
	Advisors     []string `json:"advisors"`
	Products     []string `json:"products"`
	Patents      []string `json:"patents"`
	Publications []string `json:"publications"`
	SourceURL    string   `json:"source_url"`
}

// PatentRecord is one hit from the public patent registry.
type PatentRecord struct {
	Number       string   `json:"number"`
	Title        string   `json:"title"`
	Inventors    []string `json:"inventors"`
	FilingYear   int      `json:"filing_year"`
	Jurisdiction string   `json:"jurisdiction"`
	SourceURL    string   `json:"source_url"`
}

// PublicationRecord is one hit from the public literature index.
type PublicationRecord struct {
	PubmedID  string `json:"pubmed_id"`
	Title     string `json:"title"`
	Journal   string `json:"journal"`
	Year      int    `json:"year"`
	SourceURL string `json:"source_url"`
}

// PublicRecords holds what the patent and publication registries list
// under a company name.
type PublicRecords struct {
	Patents      []PatentRecord      `json:"patents"`
	Publications []PublicationRecord `json:"publications"`
}

// NewsItem is one search hit from the news producer.
type NewsItem struct {
	Headline      string `json:"headline"`
	ArticleURL    string `json:"article_url"`
	NewsCategory  string `json:"news_category"`
	PublishedDate string `json:"published_date"`
}

// Seed is one input row naming a company to process.
type Seed struct {
	AwardID  string              `json:"award_id"`
	Name     string              `json:"name"`
	Year     int                 `json:"year"`
	Registry RegistryObservation `json:"registry"`
}
