package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/bigaward-cli/internal/model"
	"github.com/sells-group/bigaward-cli/internal/store"
)

// --- Producer Mocks ---

type mockAI struct {
	mock.Mock
}

func (m *mockAI) Extract(ctx context.Context, seed model.Seed) (model.AIObservation, error) {
	args := m.Called(ctx, seed)
	return args.Get(0).(model.AIObservation), args.Error(1)
}

type mockWebsite struct {
	mock.Mock
}

func (m *mockWebsite) Scrape(ctx context.Context, url string) (model.WebsiteObservation, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(model.WebsiteObservation), args.Error(1)
}

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) Lookup(ctx context.Context, seed model.Seed) (model.RegistryObservation, error) {
	args := m.Called(ctx, seed)
	return args.Get(0).(model.RegistryObservation), args.Error(1)
}

type mockNews struct {
	mock.Mock
}

func (m *mockNews) Search(ctx context.Context, query string, limit int) ([]model.NewsItem, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.NewsItem), args.Error(1)
}

type mockRecords struct {
	mock.Mock
}

func (m *mockRecords) Search(ctx context.Context, name string) (model.PublicRecords, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.PublicRecords), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertCompany(ctx context.Context, row store.Row) (string, error) {
	args := m.Called(ctx, row)
	return args.String(0), args.Error(1)
}

func (m *mockStore) ReplacePeople(ctx context.Context, awardID string, rows []store.Row) error {
	return m.Called(ctx, awardID, rows).Error(0)
}

func (m *mockStore) ReplaceProducts(ctx context.Context, awardID string, rows []store.Row) error {
	return m.Called(ctx, awardID, rows).Error(0)
}

func (m *mockStore) UpsertPatents(ctx context.Context, awardID string, rows []store.Row) error {
	return m.Called(ctx, awardID, rows).Error(0)
}

func (m *mockStore) UpsertPublications(ctx context.Context, awardID string, rows []store.Row) error {
	return m.Called(ctx, awardID, rows).Error(0)
}

func (m *mockStore) InsertFundingRounds(ctx context.Context, rows []store.Row) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) InsertNews(ctx context.Context, rows []store.Row) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockStore) LogExtraction(ctx context.Context, entry model.ExtractionLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockStore) ListCompanies(ctx context.Context) ([]store.Row, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Row), args.Error(1)
}

func (m *mockStore) UpdateQualityScores(ctx context.Context, scores map[string]float64) error {
	return m.Called(ctx, scores).Error(0)
}

func (m *mockStore) DeleteCompany(ctx context.Context, awardID string) error {
	return m.Called(ctx, awardID).Error(0)
}

func (m *mockStore) Export(ctx context.Context, table string) (*store.TableData, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.TableData), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

var _ store.Store = (*mockStore)(nil)
