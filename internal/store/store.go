// Package store persists admitted company profiles and extraction logs.
package store

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bigaward-cli/internal/model"
)

// Row is one table row keyed by column name.
type Row map[string]any

// Table names as they exist in the database.
const (
	TableCompanies     = "companies"
	TablePeople        = "people"
	TableProducts      = "products_services"
	TablePatents       = "patents"
	TablePublications  = "publications"
	TableFunding       = "funding_rounds"
	TableNews          = "news_coverage"
	TableExtractionLog = "extraction_log"
)

// Tables lists the writable columns of every table. Serial ids and
// timestamps are left to column defaults.
var Tables = map[string][]string{
	TableCompanies: {
		"big_award_id", "registered_name", "original_awardee", "big_award_year", "website_url",
		"cin", "incorporation_date", "location", "mca_status", "data_quality_score",
	},
	TablePeople: {
		"big_award_id", "full_name", "designation", "role_type", "source", "source_url",
	},
	TableProducts: {
		"big_award_id", "product_name", "development_stage", "source", "source_url",
	},
	TablePatents: {
		"big_award_id", "patent_number", "patent_type", "title", "inventors", "filing_year",
		"indian_jurisdiction", "foreign_jurisdiction", "jurisdiction_list", "source", "source_url",
	},
	TablePublications: {
		"big_award_id", "pubmed_id", "title", "journal", "publication_year", "citation_text",
		"source", "source_url",
	},
	TableFunding: {
		"big_award_id", "stage", "amount_inr", "source_name", "source_type", "funding_type",
		"announced_date", "data_source", "source_url",
	},
	TableNews: {
		"big_award_id", "headline", "published_date", "news_category", "article_url", "scraped_at",
	},
	TableExtractionLog: {
		"big_award_id", "run_id", "data_type", "extraction_status", "records_found",
		"error_message", "source_url", "extracted_at",
	},
}

// Natural keys used by the upserting writers.
var (
	patentKeys      = []string{"patent_number"}
	publicationKeys = []string{"big_award_id", "title"}
)

// TableData is a full table dump used by the export command.
type TableData struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Store is the persistence sink for admitted profiles.
type Store interface {
	// UpsertCompany inserts or updates the company row and returns its id.
	UpsertCompany(ctx context.Context, row Row) (string, error)
	// ReplacePeople swaps all people rows of a company.
	ReplacePeople(ctx context.Context, awardID string, rows []Row) error
	// ReplaceProducts swaps all product rows of a company.
	ReplaceProducts(ctx context.Context, awardID string, rows []Row) error
	UpsertPatents(ctx context.Context, awardID string, rows []Row) error
	UpsertPublications(ctx context.Context, awardID string, rows []Row) error
	InsertFundingRounds(ctx context.Context, rows []Row) error
	InsertNews(ctx context.Context, rows []Row) error

	LogExtraction(ctx context.Context, entry model.ExtractionLog) error

	ListCompanies(ctx context.Context) ([]Row, error)
	UpdateQualityScores(ctx context.Context, scores map[string]float64) error
	// DeleteCompany removes a company; child rows cascade.
	DeleteCompany(ctx context.Context, awardID string) error
	Export(ctx context.Context, table string) (*TableData, error)

	Migrate(ctx context.Context) error
	Close() error
}

// ExportableTables returns every table name in load order.
func ExportableTables() []string {
	return []string{
		TableCompanies, TablePeople, TableProducts, TablePatents,
		TablePublications, TableFunding, TableNews, TableExtractionLog,
	}
}

// columnsFor returns the writable columns of table or an error for an
// unknown name. Table names reach SQL text so they must be checked here.
func columnsFor(table string) ([]string, error) {
	cols, ok := Tables[table]
	if !ok {
		return nil, eris.Errorf("store: unknown table %q", table)
	}
	return cols, nil
}

// values lays rows out in column order. Missing keys become NULL.
func values(rows []Row, cols []string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		vals := make([]any, len(cols))
		for j, c := range cols {
			vals[j] = r[c]
		}
		out[i] = vals
	}
	return out
}

// withAwardID stamps the company id onto rows that lack one.
func withAwardID(rows []Row, awardID string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		cp := make(Row, len(r)+1)
		for k, v := range r {
			cp[k] = v
		}
		if id, _ := cp["big_award_id"].(string); id == "" {
			cp["big_award_id"] = awardID
		}
		out[i] = cp
	}
	return out
}

// LogRow converts an extraction log entry into a Row.
func LogRow(entry model.ExtractionLog) Row {
	return Row(entry.Fields())
}

// sortedIDs returns score keys in a stable order.
func sortedIDs(scores map[string]float64) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
