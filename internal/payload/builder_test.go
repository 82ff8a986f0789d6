package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bigaward-cli/internal/model"
)

var fixedNow = time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(WithClock(func() time.Time { return fixedNow }))
}

func TestBuild_NameOnlyCompany(t *testing.T) {
	p := newTestBuilder().Build(Input{AwardID: "BIG-1", Name: "  acme   bio  "})

	require.Len(t, p.Company, 1)
	c := p.Company[0]
	assert.Equal(t, "BIG-1", c.BigAwardID)
	assert.Equal(t, "Acme Bio", c.RegisteredName)
	assert.Nil(t, c.WebsiteURL)
	assert.Nil(t, c.CIN)
	assert.Nil(t, c.BigAwardYear)
	assert.Equal(t, 0.0, c.DataQualityScore)

	assert.Empty(t, p.People)
	assert.Empty(t, p.ProductsServices)
	assert.Empty(t, p.Patents)
	assert.Empty(t, p.Publications)
	assert.Empty(t, p.FundingRounds)
	assert.Empty(t, p.NewsCoverage)
}

func TestBuild_CompanyNormalizedAndScored(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-2",
		Name:    "genome labs",
		Year:    2019,
		AI: model.AIObservation{Profile: model.Profile{
			WebsiteURL:        "genomelabs.in",
			CIN:               "u72900ka2015ptc082520",
			IncorporationDate: "Mar 15, 2015",
			Location:          " Bengaluru,  Karnataka ",
		}},
		Registry: model.RegistryObservation{Profile: model.Profile{
			CIN:       "INVALID",
			MCAStatus: "Active",
		}},
	})

	c := p.Company[0]
	require.NotNil(t, c.WebsiteURL)
	assert.Equal(t, "https://genomelabs.in", *c.WebsiteURL)
	require.NotNil(t, c.CIN)
	assert.Equal(t, "U72900KA2015PTC082520", *c.CIN)
	require.NotNil(t, c.IncorporationDate)
	assert.Equal(t, time.Date(2015, 3, 15, 0, 0, 0, 0, time.UTC), *c.IncorporationDate)
	assert.Equal(t, "Bengaluru, Karnataka", *c.Location)
	assert.Equal(t, "Active", *c.MCAStatus)
	assert.Equal(t, 2019, *c.BigAwardYear)
	assert.Nil(t, c.OriginalAwardee)
	assert.Equal(t, 0.83, c.DataQualityScore)
}

func TestBuild_InvalidCINDropsFromScore(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-3",
		Name:    "x",
		AI:      model.AIObservation{Profile: model.Profile{CIN: "ABCDE"}},
	})
	assert.Nil(t, p.Company[0].CIN)
	assert.Equal(t, 0.0, p.Company[0].DataQualityScore)
}

func TestBuild_FoundersAndTeamNotCrossDeduped(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-4",
		Name:    "Acme",
		AI: model.AIObservation{
			Profile:  model.Profile{MCAStatus: "Active"},
			Founders: []model.Founder{{FullName: "Jane Doe"}},
		},
		Registry: model.RegistryObservation{Profile: model.Profile{MCAStatus: "Active"}},
		Website: model.WebsiteObservation{
			Team:      []string{"Jane Doe"},
			SourceURL: "https://acme.in/team",
		},
	})

	assert.Equal(t, "Active", *p.Company[0].MCAStatus)
	require.Len(t, p.People, 2)

	founder, team := p.People[0], p.People[1]
	assert.Equal(t, "Jane Doe", founder.FullName)
	assert.Equal(t, RoleFounder, *founder.RoleType)
	assert.Equal(t, SourceAIAgent, *founder.Source)
	assert.Nil(t, founder.SourceURL)

	assert.Equal(t, "Jane Doe", team.FullName)
	assert.Equal(t, RoleCoreTeam, *team.RoleType)
	assert.Equal(t, SourceWebsite, *team.Source)
	assert.Equal(t, "https://acme.in/team", *team.SourceURL)
}

func TestBuild_FounderRoleKept(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-5",
		AI: model.AIObservation{Founders: []model.Founder{
			{FullName: "Raj Kumar", Designation: "CEO", RoleType: "Co-Founder"},
		}},
		Website: model.WebsiteObservation{Advisors: []string{"dr. meera rao", "  "}},
	})
	require.Len(t, p.People, 2)
	assert.Equal(t, "Co-Founder", *p.People[0].RoleType)
	assert.Equal(t, "CEO", *p.People[0].Designation)
	assert.Equal(t, "Dr. Meera Rao", p.People[1].FullName)
	assert.Equal(t, RoleAdvisor, *p.People[1].RoleType)
}

func TestBuild_WebsiteLists(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-6",
		Website: model.WebsiteObservation{
			Products:     []string{"RapidDx Kit", "RapidDx Kit", ""},
			Patents:      []string{"IN201941012345", "US10123456B2"},
			Publications: []string{"A novel assay"},
			SourceURL:    "https://acme.in",
		},
	})

	require.Len(t, p.ProductsServices, 1)
	assert.Equal(t, "RapidDx Kit", *p.ProductsServices[0].ProductName)
	assert.Nil(t, p.ProductsServices[0].DevelopmentStage)

	require.Len(t, p.Patents, 2)
	pt := p.Patents[0]
	assert.Equal(t, "IN201941012345", pt.PatentNumber)
	assert.Nil(t, pt.Title)
	assert.Nil(t, pt.Inventors)
	assert.Nil(t, pt.FilingYear)
	assert.Nil(t, pt.IndianJurisdiction)
	assert.Nil(t, pt.ForeignJurisdiction)
	assert.Equal(t, "https://acme.in", *pt.SourceURL)

	require.Len(t, p.Publications, 1)
	assert.Equal(t, "A novel assay", *p.Publications[0].Title)
	assert.Equal(t, SourceWebsite, *p.Publications[0].Source)
}

func TestBuild_PublicRecords(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-9",
		Website: model.WebsiteObservation{
			Patents:      []string{"in201941012345", "US10123456B2"},
			Publications: []string{"A Novel Assay.", "Website only paper"},
			SourceURL:    "https://acme.in",
		},
		Records: model.PublicRecords{
			Patents: []model.PatentRecord{
				{
					Number:       "IN201941012345",
					Title:        "Rapid  antigen assay",
					Inventors:    []string{"Asha Rao", "Vikram Shah", "Asha Rao"},
					FilingYear:   2019,
					Jurisdiction: "IN",
					SourceURL:    "https://patents.example/q",
				},
				{Number: "WO2023000123", Title: "Cartridge", Jurisdiction: "wo; US"},
				{Number: "", Title: "No number"},
				{Number: "WO2023000123", Title: "Duplicate"},
			},
			Publications: []model.PublicationRecord{
				{PubmedID: "35012345", Title: "a novel assay", Journal: "J Clin Micro", Year: 2022, SourceURL: "https://pubmed.example/35012345/"},
				{Title: "Index only paper", Journal: "Lancet"},
				{Title: "  "},
			},
		},
	})

	require.Len(t, p.Patents, 3)
	in := p.Patents[0]
	assert.Equal(t, "IN201941012345", in.PatentNumber)
	assert.Equal(t, SourcePatentscope, *in.Source)
	assert.Equal(t, "Rapid antigen assay", *in.Title)
	assert.Equal(t, "Asha Rao; Vikram Shah", *in.Inventors)
	assert.Equal(t, 2019, *in.FilingYear)
	assert.True(t, *in.IndianJurisdiction)
	assert.False(t, *in.ForeignJurisdiction)
	assert.Equal(t, "IN", *in.JurisdictionList)
	assert.Equal(t, "https://patents.example/q", *in.SourceURL)

	us := p.Patents[1]
	assert.Equal(t, "US10123456B2", us.PatentNumber)
	assert.Equal(t, SourceWebsite, *us.Source)
	assert.Nil(t, us.Title)

	wo := p.Patents[2]
	assert.Equal(t, "WO2023000123", wo.PatentNumber)
	assert.Equal(t, "Cartridge", *wo.Title)
	assert.Nil(t, wo.FilingYear)
	assert.False(t, *wo.IndianJurisdiction)
	assert.True(t, *wo.ForeignJurisdiction)
	assert.Equal(t, "WO, US", *wo.JurisdictionList)

	require.Len(t, p.Publications, 3)
	matched := p.Publications[0]
	assert.Equal(t, "A Novel Assay.", *matched.Title)
	assert.Equal(t, SourcePubMed, *matched.Source)
	assert.Equal(t, "35012345", *matched.PubmedID)
	assert.Equal(t, "J Clin Micro", *matched.Journal)
	assert.Equal(t, 2022, *matched.PublicationYear)
	assert.Equal(t, "A Novel Assay. J Clin Micro", *matched.CitationText)

	assert.Equal(t, "Website only paper", *p.Publications[1].Title)
	assert.Equal(t, SourceWebsite, *p.Publications[1].Source)

	indexOnly := p.Publications[2]
	assert.Equal(t, "Index only paper", *indexOnly.Title)
	assert.Nil(t, indexOnly.PubmedID)
	assert.Nil(t, indexOnly.PublicationYear)
	assert.Equal(t, "Index only paper Lancet", *indexOnly.CitationText)
}

func TestBuild_FundingSkipsBadEntries(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-7",
		AI: model.AIObservation{FundingRounds: []model.FundingEntry{
			{Stage: "Seed", Amount: "₹10.5 Cr", AnnouncedDate: "2021-06-01"},
			{},
			{Stage: "Series A", Amount: "about 5 crore"},
			{Stage: "Grant", Amount: "undisclosed", SourceName: "BIRAC"},
			{Stage: "Pre-Series A", Amount: "Rs10 crore"},
			{Stage: "Bridge", Amount: "INR10Cr"},
		}},
	})

	require.Len(t, p.FundingRounds, 4)
	seed := p.FundingRounds[0]
	assert.Equal(t, "Seed", *seed.Stage)
	require.NotNil(t, seed.AmountINR)
	assert.InDelta(t, 1.05e8, *seed.AmountINR, 0.01)
	require.NotNil(t, seed.AnnouncedDate)
	assert.Equal(t, SourceAIAgent, *seed.DataSource)

	grant := p.FundingRounds[1]
	assert.Equal(t, "Grant", *grant.Stage)
	assert.Nil(t, grant.AmountINR)

	for _, r := range p.FundingRounds[2:] {
		require.NotNil(t, r.AmountINR, *r.Stage)
		assert.InDelta(t, 1e8, *r.AmountINR, 0.01, *r.Stage)
	}
}

func TestFundingRound_Errors(t *testing.T) {
	_, err := fundingRound("B", model.FundingEntry{})
	assert.ErrorIs(t, err, ErrEmptyFunding)

	_, err = fundingRound("B", model.FundingEntry{Amount: "~3 cr"})
	assert.ErrorIs(t, err, ErrMalformedAmount)
	assert.Contains(t, err.Error(), "~3 cr")
}

func TestBuild_News(t *testing.T) {
	p := newTestBuilder().Build(Input{
		AwardID: "BIG-8",
		News: []model.NewsItem{
			{Headline: "Acme raises seed", ArticleURL: "https://news.example/a", NewsCategory: "Funding", PublishedDate: "Jan 5, 2024"},
			{Headline: "Acme wins award", PublishedDate: "last week"},
		},
	})

	require.Len(t, p.NewsCoverage, 2)
	first, second := p.NewsCoverage[0], p.NewsCoverage[1]
	require.NotNil(t, first.PublishedDate)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), *first.PublishedDate)
	assert.Equal(t, "Funding", *first.NewsCategory)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), first.ScrapedAt)

	assert.Nil(t, second.PublishedDate, "unparseable date keeps the record")
	assert.Equal(t, DefaultNewsCategory, *second.NewsCategory)
	assert.Nil(t, second.ArticleURL)
}

func TestCompleteness(t *testing.T) {
	assert.Equal(t, 0.0, Completeness(model.Company{}))
	assert.Equal(t, 0.17, Completeness(model.Company{Location: model.StrPtr("Pune")}))
	d := time.Now()
	assert.Equal(t, 1.0, Completeness(model.Company{
		WebsiteURL: model.StrPtr("a"), CIN: model.StrPtr("b"), IncorporationDate: &d,
		Location: model.StrPtr("c"), OriginalAwardee: model.StrPtr("d"), MCAStatus: model.StrPtr("e"),
	}))
}

func TestRequiredFieldScore(t *testing.T) {
	assert.Equal(t, 0.17, RequiredFieldScore(map[string]any{"registered_name": "Acme"}))
	assert.Equal(t, 0.33, RequiredFieldScore(map[string]any{
		"registered_name":    "Acme",
		"incorporation_date": time.Now(),
		"location":           "  ",
		"cin":                nil,
	}))
	assert.Equal(t, 0.0, RequiredFieldScore(nil))
}
