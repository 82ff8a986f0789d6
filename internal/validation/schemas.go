package validation

// Canonical schema kinds.
const (
	KindCompany       = "company"
	KindPerson        = "person"
	KindPatent        = "patent"
	KindPublication   = "publication"
	KindProduct       = "product"
	KindFunding       = "funding"
	KindNews          = "news"
	KindExtractionLog = "extraction_log"
)

func awardID() Validator {
	return Critical(Text("big_award_id", Required(), MaxLen(50)))
}

func year(field string) Validator {
	return Number(field, Integer(), Range(1900, 2100))
}

func serialID(field string) Validator {
	return Number(field, Integer(), AtLeast(1))
}

// DefaultSchemas returns the table schemas persisted by the pipeline.
func DefaultSchemas() []Schema {
	return []Schema{
		NewSchema(KindCompany, []string{"companies"},
			awardID(),
			Text("registered_name", Required(), MaxLen(255)),
			Text("original_awardee", MaxLen(255)),
			year("big_award_year"),
			URL("website_url"),
			Identifier("cin"),
			Date("incorporation_date"),
			Text("location"),
			Text("mca_status", MaxLen(50)),
			Number("data_quality_score", Range(0, 1)),
			Date("created_at"),
			Date("updated_at"),
		),
		NewSchema(KindPerson, []string{"people", "persons"},
			serialID("person_id"),
			awardID(),
			Text("full_name", Required(), MaxLen(255)),
			Text("designation", MaxLen(255)),
			Text("role_type", MaxLen(50)),
			Text("source", MaxLen(100)),
			URL("source_url"),
			Date("created_at"),
		),
		NewSchema(KindPatent, []string{"patents"},
			serialID("patent_id"),
			awardID(),
			Text("patent_number", Required(), MaxLen(100)),
			Text("patent_type", MaxLen(100)),
			Text("title", MaxLen(1000)),
			Text("inventors", MaxLen(1000)),
			year("filing_year"),
			Bool("indian_jurisdiction"),
			Bool("foreign_jurisdiction"),
			Text("jurisdiction_list"),
			Text("source", MaxLen(100)),
			URL("source_url"),
			Date("created_at"),
		),
		NewSchema(KindPublication, []string{"publications"},
			serialID("publication_id"),
			awardID(),
			Text("pubmed_id", MaxLen(20), Pattern(`^\d+$`)),
			Text("title", MaxLen(1000)),
			Text("journal", MaxLen(255)),
			year("publication_year"),
			Text("citation_text", MaxLen(2000)),
			Text("source", MaxLen(100)),
			URL("source_url"),
			Date("created_at"),
		),
		NewSchema(KindProduct, []string{"products", "products_services"},
			serialID("product_id"),
			awardID(),
			Text("product_name", MaxLen(255)),
			Text("development_stage", MaxLen(100)),
			Text("source", MaxLen(100)),
			URL("source_url"),
			Date("created_at"),
		),
		NewSchema(KindFunding, []string{"funding_rounds"},
			serialID("funding_id"),
			awardID(),
			Text("stage", MaxLen(20)),
			Number("amount_inr", AtLeast(0)),
			Text("source_name"),
			Text("source_type", MaxLen(20)),
			Text("funding_type", MaxLen(10)),
			Date("announced_date"),
			Text("data_source", MaxLen(100)),
			URL("source_url"),
			Date("created_at"),
			Date("updated_at"),
		),
		NewSchema(KindNews, []string{"news_coverage"},
			serialID("news_id"),
			awardID(),
			Text("headline", MaxLen(1000)),
			Date("published_date"),
			Text("news_category", MaxLen(100)),
			URL("article_url"),
			Date("scraped_at"),
		),
		NewSchema(KindExtractionLog, []string{"extraction_logs"},
			serialID("log_id"),
			awardID(),
			Text("data_type", MaxLen(100)),
			Text("extraction_status", MaxLen(50)),
			Number("records_found", Integer(), AtLeast(0)),
			Text("error_message", MaxLen(0)),
			URL("source_url"),
			Date("extracted_at"),
		),
	}
}

// DefaultRegistry returns a registry of DefaultSchemas.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSchemas()...)
	if err != nil {
		panic(err)
	}
	return r
}
