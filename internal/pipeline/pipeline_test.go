package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bigaward-cli/internal/gate"
	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/payload"
	"github.com/sells-group/bigaward-cli/internal/store"
	"github.com/sells-group/bigaward-cli/internal/validation"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func acmeSeed() model.Seed {
	return model.Seed{
		AwardID: "BIG-001",
		Name:    "acme biotech",
		Year:    2021,
		Registry: model.RegistryObservation{Profile: model.Profile{
			CIN:       "U73100KA2019PTC123456",
			Location:  "Bengaluru,  Karnataka",
			MCAStatus: "Active",
		}},
	}
}

func acmeAI() model.AIObservation {
	return model.AIObservation{
		Profile: model.Profile{
			WebsiteURL:        "acme.in",
			IncorporationDate: "2019-04-01",
			OriginalAwardee:   "asha rao",
		},
		Founders:      []model.Founder{{FullName: "Asha Rao", Designation: "CEO"}},
		FundingRounds: []model.FundingEntry{{Stage: "Seed", Amount: "INR 2 crore"}},
	}
}

func acmeWebsite() model.WebsiteObservation {
	return model.WebsiteObservation{
		Team:      []string{"vikram shah"},
		Products:  []string{"AcmeKit"},
		SourceURL: "https://acme.in",
	}
}

func acmeNews() []model.NewsItem {
	return []model.NewsItem{{
		Headline:      "Acme wins BIG award",
		ArticleURL:    "https://news.example.com/a",
		PublishedDate: "Mar 4, 2024",
	}}
}

type fixture struct {
	ai       *mockAI
	website  *mockWebsite
	registry *mockRegistry
	news     *mockNews
	store    *mockStore
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		ai:       &mockAI{},
		website:  &mockWebsite{},
		registry: &mockRegistry{},
		news:     &mockNews{},
		store:    &mockStore{},
	}
	t.Cleanup(func() {
		f.ai.AssertExpectations(t)
		f.website.AssertExpectations(t)
		f.registry.AssertExpectations(t)
		f.news.AssertExpectations(t)
		f.store.AssertExpectations(t)
	})
	return f
}

func (f *fixture) runner(opts Options, st store.Store) *Runner {
	p := Producers{AI: f.ai, Website: f.website, Registry: f.registry, News: f.news}
	return New(p,
		payload.NewBuilder(payload.WithClock(func() time.Time { return fixedNow })),
		gate.New(validation.DefaultRegistry(), gate.WithClock(func() time.Time { return fixedNow })),
		validation.DefaultRegistry(),
		st,
		opts,
	)
}

func rowsLen(n int) any {
	return mock.MatchedBy(func(rows []store.Row) bool { return len(rows) == n })
}

func logStatus(status string, records int) any {
	return mock.MatchedBy(func(e model.ExtractionLog) bool {
		return e.ExtractionStatus == status && e.RecordsFound == records &&
			e.DataType == DataTypeFullPipeline && e.RunID != ""
	})
}

func TestProcess_Admitted(t *testing.T) {
	f := newFixture(t)
	seed := acmeSeed()

	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(acmeAI(), nil)
	f.website.On("Scrape", mock.Anything, "acme.in").Return(acmeWebsite(), nil)
	f.news.On("Search", mock.Anything, "acme biotech", 5).Return(acmeNews(), nil)
	f.news.On("Search", mock.Anything, "Asha Rao", 2).Return(acmeNews(), nil)

	f.store.On("UpsertCompany", mock.Anything, mock.MatchedBy(func(row store.Row) bool {
		return row["big_award_id"] == "BIG-001" &&
			row["registered_name"] == "Acme Biotech" &&
			row["website_url"] == "https://acme.in" &&
			row["location"] == "Bengaluru, Karnataka"
	})).Return("BIG-001", nil)
	f.store.On("ReplacePeople", mock.Anything, "BIG-001", rowsLen(2)).Return(nil)
	f.store.On("ReplaceProducts", mock.Anything, "BIG-001", rowsLen(1)).Return(nil)
	f.store.On("InsertFundingRounds", mock.Anything, mock.MatchedBy(func(rows []store.Row) bool {
		return len(rows) == 1 && rows[0]["amount_inr"] == 2e7
	})).Return(nil)
	f.store.On("InsertNews", mock.Anything, rowsLen(1)).Return(nil)
	f.store.On("LogExtraction", mock.Anything, logStatus(StatusSuccess, 6)).Return(nil)

	r := f.runner(Options{Validate: true, NewsLimit: 5, FounderNewsLimit: 2}, f.store)
	out := r.Process(context.Background(), seed)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.True(t, out.Accepted)
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, 6, out.RecordsFound)
	require.NotNil(t, out.Report)
	assert.NotEqual(t, gate.StatusFailed, out.Report.Status)
}

func TestProcess_ProducerFailuresBecomeEmptyObservations(t *testing.T) {
	f := newFixture(t)
	seed := acmeSeed()
	seed.Registry.WebsiteURL = "acme.in"

	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(model.AIObservation{}, errors.New("model overloaded"))
	f.website.On("Scrape", mock.Anything, "acme.in").Return(model.WebsiteObservation{}, errors.New("blocked"))
	f.news.On("Search", mock.Anything, "acme biotech", 5).Return(nil, errors.New("quota"))

	f.store.On("UpsertCompany", mock.Anything, mock.Anything).Return("BIG-001", nil)
	f.store.On("ReplacePeople", mock.Anything, "BIG-001", rowsLen(0)).Return(nil)
	f.store.On("ReplaceProducts", mock.Anything, "BIG-001", rowsLen(0)).Return(nil)
	f.store.On("LogExtraction", mock.Anything, logStatus(StatusSuccess, 1)).Return(nil)

	r := f.runner(Options{Validate: true, NewsLimit: 5, FounderNewsLimit: 2}, f.store)
	out := r.Process(context.Background(), seed)

	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Warnings, 3)
	assert.Contains(t, out.Warnings[0], "ai: model overloaded")
	assert.Contains(t, out.Warnings[1], "website: blocked")
	assert.Contains(t, out.Warnings[2], "news: quota")
}

func TestProcess_Rejected(t *testing.T) {
	f := newFixture(t)
	seed := model.Seed{AwardID: "BIG-002", Name: "   "}

	f.registry.On("Lookup", mock.Anything, seed).Return(model.RegistryObservation{}, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(model.AIObservation{}, nil)
	f.store.On("LogExtraction", mock.Anything, mock.MatchedBy(func(e model.ExtractionLog) bool {
		return e.BigAwardID == "BIG-002" && e.ExtractionStatus == StatusFailed &&
			e.ErrorMessage != nil && e.RecordsFound == 0
	})).Return(nil)

	r := f.runner(Options{Validate: true, NewsLimit: 5}, f.store)
	out := r.Process(context.Background(), seed)

	assert.Equal(t, StatusFailed, out.Status)
	assert.False(t, out.Accepted)
	require.NotNil(t, out.Report)
	assert.Equal(t, gate.StatusFailed, out.Report.Status)
	f.store.AssertNotCalled(t, "UpsertCompany", mock.Anything, mock.Anything)
}

func TestProcess_ValidationDisabledSkipsGate(t *testing.T) {
	f := newFixture(t)
	seed := model.Seed{AwardID: "BIG-002", Name: "Beta Labs"}

	f.registry.On("Lookup", mock.Anything, seed).Return(model.RegistryObservation{}, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(model.AIObservation{}, nil)
	f.store.On("UpsertCompany", mock.Anything, mock.Anything).Return("BIG-002", nil)
	f.store.On("ReplacePeople", mock.Anything, "BIG-002", rowsLen(0)).Return(nil)
	f.store.On("ReplaceProducts", mock.Anything, "BIG-002", rowsLen(0)).Return(nil)
	f.store.On("LogExtraction", mock.Anything, logStatus(StatusSuccess, 1)).Return(nil)

	out := f.runner(Options{}, f.store).Process(context.Background(), seed)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Nil(t, out.Report)
}

func TestProcess_CompanyUpsertFailureSkipsChildren(t *testing.T) {
	f := newFixture(t)
	seed := acmeSeed()

	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(acmeAI(), nil)
	f.website.On("Scrape", mock.Anything, "acme.in").Return(acmeWebsite(), nil)
	f.store.On("UpsertCompany", mock.Anything, mock.Anything).Return("", errors.New("duplicate cin"))
	f.store.On("LogExtraction", mock.Anything, mock.MatchedBy(func(e model.ExtractionLog) bool {
		return e.ExtractionStatus == StatusFailed &&
			e.ErrorMessage != nil && strings.Contains(*e.ErrorMessage, "duplicate cin") &&
			e.SourceURL != nil && *e.SourceURL == "https://acme.in"
	})).Return(nil)

	out := f.runner(Options{Validate: true}, f.store).Process(context.Background(), seed)

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "pipeline: upsert company")
	f.store.AssertNotCalled(t, "ReplacePeople", mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "InsertNews", mock.Anything, mock.Anything)
}

func TestProcess_ChildFailureContinues(t *testing.T) {
	f := newFixture(t)
	seed := acmeSeed()

	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(acmeAI(), nil)
	f.website.On("Scrape", mock.Anything, "acme.in").Return(acmeWebsite(), nil)
	f.store.On("UpsertCompany", mock.Anything, mock.Anything).Return("BIG-001", nil)
	f.store.On("ReplacePeople", mock.Anything, "BIG-001", mock.Anything).Return(errors.New("disk full"))
	f.store.On("ReplaceProducts", mock.Anything, "BIG-001", rowsLen(1)).Return(nil)
	f.store.On("InsertFundingRounds", mock.Anything, rowsLen(1)).Return(nil)
	f.store.On("LogExtraction", mock.Anything, logStatus(StatusFailed, 3)).Return(nil)

	out := f.runner(Options{Validate: true}, f.store).Process(context.Background(), seed)

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "pipeline: load people")
	assert.Equal(t, 3, out.RecordsFound)
}

func TestProcess_MissingSchemaLeavesTableUntouched(t *testing.T) {
	f := newFixture(t)
	seed := acmeSeed()

	var schemas []validation.Schema
	for _, sc := range validation.DefaultSchemas() {
		if sc.Kind != validation.KindPerson {
			schemas = append(schemas, sc)
		}
	}
	reg, err := validation.NewRegistry(schemas...)
	require.NoError(t, err)

	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(acmeAI(), nil)
	f.website.On("Scrape", mock.Anything, "acme.in").Return(acmeWebsite(), nil)
	f.store.On("UpsertCompany", mock.Anything, mock.Anything).Return("BIG-001", nil)
	f.store.On("ReplaceProducts", mock.Anything, "BIG-001", rowsLen(1)).Return(nil)
	f.store.On("InsertFundingRounds", mock.Anything, rowsLen(1)).Return(nil)
	f.store.On("LogExtraction", mock.Anything, logStatus(StatusFailed, 3)).Return(nil)

	r := New(Producers{AI: f.ai, Website: f.website, Registry: f.registry, News: f.news},
		payload.NewBuilder(payload.WithClock(func() time.Time { return fixedNow })),
		gate.New(reg),
		reg,
		f.store,
		Options{},
	)
	out := r.Process(context.Background(), seed)

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "pipeline: clean people")
	assert.True(t, errors.Is(out.Err, validation.ErrUnknownEntityType))
	f.store.AssertNotCalled(t, "ReplacePeople", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_DryRun(t *testing.T) {
	f := newFixture(t)
	seed := acmeSeed()

	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(acmeAI(), nil)
	f.website.On("Scrape", mock.Anything, "acme.in").Return(acmeWebsite(), nil)

	out := f.runner(Options{Validate: true}, nil).Process(context.Background(), seed)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 5, out.RecordsFound)
}

func TestProcess_BreakerSkipsDeadProducer(t *testing.T) {
	f := newFixture(t)
	seed := model.Seed{AwardID: "BIG-003", Name: "Gamma Bio"}

	f.registry.On("Lookup", mock.Anything, seed).Return(model.RegistryObservation{}, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(model.AIObservation{}, errors.New("down")).Once()

	r := f.runner(Options{DryRun: true, BreakerThreshold: 1, BreakerCooldown: time.Hour}, f.store)
	first := r.Process(context.Background(), seed)
	second := r.Process(context.Background(), seed)

	assert.Contains(t, first.Warnings[0], "ai: down")
	assert.Contains(t, second.Warnings[0], "circuit open")
}

func TestProcess_PublicRecordsFillPatentsAndPublications(t *testing.T) {
	f := newFixture(t)
	seed := acmeSeed()
	records := &mockRecords{}
	t.Cleanup(func() { records.AssertExpectations(t) })

	web := acmeWebsite()
	web.Patents = []string{"IN202141012345"}

	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(acmeAI(), nil)
	f.website.On("Scrape", mock.Anything, "acme.in").Return(web, nil)
	records.On("Search", mock.Anything, "acme biotech").Return(model.PublicRecords{
		Patents: []model.PatentRecord{{Number: "IN202141012345", Title: "Rapid assay", FilingYear: 2021, Jurisdiction: "IN"}},
		Publications: []model.PublicationRecord{
			{PubmedID: "35012345", Title: "Rapid detection of TB antigens", Journal: "J Clin Micro", Year: 2022},
		},
	}, nil)

	f.store.On("UpsertCompany", mock.Anything, mock.Anything).Return("BIG-001", nil)
	f.store.On("ReplacePeople", mock.Anything, "BIG-001", rowsLen(2)).Return(nil)
	f.store.On("ReplaceProducts", mock.Anything, "BIG-001", rowsLen(1)).Return(nil)
	f.store.On("UpsertPatents", mock.Anything, "BIG-001", mock.MatchedBy(func(rows []store.Row) bool {
		return len(rows) == 1 && rows[0]["patent_number"] == "IN202141012345" &&
			rows[0]["source"] == payload.SourcePatentscope && rows[0]["title"] == "Rapid assay"
	})).Return(nil)
	f.store.On("UpsertPublications", mock.Anything, "BIG-001", mock.MatchedBy(func(rows []store.Row) bool {
		return len(rows) == 1 && rows[0]["pubmed_id"] == "35012345" &&
			rows[0]["source"] == payload.SourcePubMed
	})).Return(nil)
	f.store.On("InsertFundingRounds", mock.Anything, rowsLen(1)).Return(nil)
	f.store.On("LogExtraction", mock.Anything, logStatus(StatusSuccess, 7)).Return(nil)

	r := New(Producers{AI: f.ai, Website: f.website, Registry: f.registry, Records: records},
		payload.NewBuilder(payload.WithClock(func() time.Time { return fixedNow })),
		gate.New(validation.DefaultRegistry(), gate.WithClock(func() time.Time { return fixedNow })),
		validation.DefaultRegistry(),
		f.store,
		Options{Validate: true},
	)
	out := r.Process(context.Background(), seed)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, 7, out.RecordsFound)
}

func TestProcess_RecordsFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	seed := model.Seed{AwardID: "BIG-004", Name: "Delta Diagnostics"}
	records := &mockRecords{}
	t.Cleanup(func() { records.AssertExpectations(t) })

	f.registry.On("Lookup", mock.Anything, seed).Return(model.RegistryObservation{}, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(model.AIObservation{}, nil)
	records.On("Search", mock.Anything, "Delta Diagnostics").
		Return(model.PublicRecords{}, errors.New("registry unavailable")).Once()

	r := New(Producers{AI: f.ai, Registry: f.registry, Records: records},
		payload.NewBuilder(),
		gate.New(validation.DefaultRegistry()),
		validation.DefaultRegistry(),
		nil,
		Options{BreakerThreshold: 1, BreakerCooldown: time.Hour},
	)
	first := r.Process(context.Background(), seed)
	second := r.Process(context.Background(), seed)

	require.Len(t, first.Warnings, 1)
	assert.Contains(t, first.Warnings[0], "records: registry unavailable")
	require.Len(t, second.Warnings, 1)
	assert.Contains(t, second.Warnings[0], "circuit open")
}

func TestWebsiteURL_FallsBackToRegistry(t *testing.T) {
	in := payload.Input{Registry: model.RegistryObservation{Profile: model.Profile{WebsiteURL: "reg.in"}}}
	assert.Equal(t, "reg.in", websiteURL(in))
	in.AI.WebsiteURL = "ai.in"
	assert.Equal(t, "ai.in", websiteURL(in))
}

func TestRun_CountsAndOrder(t *testing.T) {
	f := newFixture(t)
	good := model.Seed{AwardID: "BIG-010", Name: "Delta Bio"}
	bad := model.Seed{AwardID: "BIG-011", Name: " "}

	f.registry.On("Lookup", mock.Anything, mock.Anything).Return(model.RegistryObservation{}, nil)
	f.ai.On("Extract", mock.Anything, mock.Anything).Return(model.AIObservation{}, nil)

	r := f.runner(Options{Validate: true, DryRun: true, Concurrency: 4}, nil)
	sum := r.Run(context.Background(), []model.Seed{good, bad, good})

	assert.Equal(t, r.RunID(), sum.RunID)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Zero(t, sum.Skipped)
	require.Len(t, sum.Outcomes, 3)
	assert.Equal(t, "BIG-011", sum.Outcomes[1].AwardID)
}

func TestRun_CancelledContextSkips(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := f.runner(Options{DryRun: true}, nil).Run(ctx, []model.Seed{{AwardID: "A", Name: "A"}, {AwardID: "B", Name: "B"}})
	assert.Equal(t, 2, sum.Skipped)
	assert.Empty(t, sum.Outcomes)
}

// countingAI records concurrent calls.
type countingAI struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (c *countingAI) Extract(_ context.Context, _ model.Seed) (model.AIObservation, error) {
	c.mu.Lock()
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
	c.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	c.mu.Lock()
	c.active--
	c.mu.Unlock()
	return model.AIObservation{}, nil
}

func TestRun_RespectsConcurrency(t *testing.T) {
	ai := &countingAI{}
	r := New(Producers{AI: ai}, payload.NewBuilder(), nil, validation.DefaultRegistry(), nil, Options{Concurrency: 2})

	seeds := make([]model.Seed, 6)
	for i := range seeds {
		seeds[i] = model.Seed{AwardID: "S", Name: "Seed"}
	}
	sum := r.Run(context.Background(), seeds)

	assert.Equal(t, 6, sum.Succeeded)
	assert.LessOrEqual(t, ai.maxSeen, 2)
}

func TestRun_SQLiteEndToEnd(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	f := newFixture(t)
	seed := acmeSeed()
	f.registry.On("Lookup", mock.Anything, seed).Return(seed.Registry, nil)
	f.ai.On("Extract", mock.Anything, seed).Return(acmeAI(), nil)
	f.website.On("Scrape", mock.Anything, "acme.in").Return(acmeWebsite(), nil)
	f.news.On("Search", mock.Anything, "acme biotech", 5).Return(acmeNews(), nil)

	r := f.runner(Options{Validate: true, NewsLimit: 5}, st)
	sum := r.Run(context.Background(), []model.Seed{seed})
	require.Equal(t, 1, sum.Succeeded, "outcome: %+v", sum.Outcomes)

	companies, err := st.ListCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Biotech", companies[0]["registered_name"])

	people, err := st.Export(context.Background(), store.TablePeople)
	require.NoError(t, err)
	assert.Len(t, people.Rows, 2)

	logs, err := st.Export(context.Background(), store.TableExtractionLog)
	require.NoError(t, err)
	require.Len(t, logs.Rows, 1)
}
