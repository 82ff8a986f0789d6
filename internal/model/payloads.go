package model

// Table names of the persisted payload sets.
const (
	TableCompany          = "company"
	TablePeople           = "people"
	TableProductsServices = "products_services"
	TablePatents          = "patents"
	TablePublications     = "publications"
	TableFundingRounds    = "funding_rounds"
	TableNewsCoverage     = "news_coverage"
)

// TableNames lists the payload tables in load order.
var TableNames = []string{
	TableCompany,
	TablePeople,
	TableProductsServices,
	TablePatents,
	TablePublications,
	TableFundingRounds,
	TableNewsCoverage,
}

// Payloads is the full set of candidate records built for one company.
type Payloads struct {
	Company          []Company        `json:"company"`
	People           []Person         `json:"people"`
	ProductsServices []ProductService `json:"products_services"`
	Patents          []Patent         `json:"patents"`
	Publications     []Publication    `json:"publications"`
	FundingRounds    []FundingRound   `json:"funding_rounds"`
	NewsCoverage     []NewsCoverage   `json:"news_coverage"`
}

// Table is one named list of records.
type Table struct {
	Name    string
	Records []Record
}

// Tables returns every payload list in load order, including empty ones.
func (p *Payloads) Tables() []Table {
	return []Table{
		{Name: TableCompany, Records: records(p.Company)},
		{Name: TablePeople, Records: records(p.People)},
		{Name: TableProductsServices, Records: records(p.ProductsServices)},
		{Name: TablePatents, Records: records(p.Patents)},
		{Name: TablePublications, Records: records(p.Publications)},
		{Name: TableFundingRounds, Records: records(p.FundingRounds)},
		{Name: TableNewsCoverage, Records: records(p.NewsCoverage)},
	}
}

// Count returns the total number of records across all tables.
func (p *Payloads) Count() int {
	n := 0
	for _, t := range p.Tables() {
		n += len(t.Records)
	}
	return n
}

func records[T Record](in []T) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}
