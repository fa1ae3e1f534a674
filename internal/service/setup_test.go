package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"ai-dataviz-be/internal/config"
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/model"
	"ai-dataviz-be/internal/repository/specification"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/events"
	"ai-dataviz-be/pkg/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testCredits = config.CreditConfig{
	SessionCost:          5,
	VisualizationCost:    1,
	LowCreditThreshold:   5,
	MaxGoalRegenerations: 2,
}

const testSummary = `{"name":"cars","fields":[{"column":"mpg"},{"column":"horsepower"}]}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// One connection serializes transactions the way row locks would.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.AiCreditTransaction{}, &model.Session{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, credits int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Create(&model.User{
		Id:       id,
		Email:    id.String() + "@example.com",
		FullName: "Test User",
		Credits:  credits,
	}).Error)
	return id
}

func seedSession(t *testing.T, uowFactory unitofwork.RepositoryFactory, userId uuid.UUID, summary string) *entity.Session {
	t.Helper()
	session := &entity.Session{
		UserId:     userId,
		Title:      "Cars",
		DatasetUrl: "https://example.com/cars.csv",
	}
	if summary != "" {
		session.DatasetSummary = json.RawMessage(summary)
	}
	ctx := context.Background()
	require.NoError(t, uowFactory.NewUnitOfWork(ctx).SessionRepository().Create(ctx, session))
	return session
}

func reloadSession(t *testing.T, uowFactory unitofwork.RepositoryFactory, sessionId uuid.UUID) *entity.Session {
	t.Helper()
	ctx := context.Background()
	session, err := uowFactory.NewUnitOfWork(ctx).SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	require.NoError(t, err)
	require.NotNil(t, session)
	return session
}

func creditsOf(t *testing.T, uowFactory unitofwork.RepositoryFactory, userId uuid.UUID) int {
	t.Helper()
	ctx := context.Background()
	credits, found, err := uowFactory.NewUnitOfWork(ctx).UserRepository().GetCredits(ctx, userId)
	require.NoError(t, err)
	require.True(t, found)
	return credits
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Summarize(ctx context.Context, datasetUrl string) (json.RawMessage, error) {
	args := m.Called(ctx, datasetUrl)
	if v := args.Get(0); v != nil {
		return v.(json.RawMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGenerator) Goals(ctx context.Context, summary json.RawMessage, n int) ([]gateway.Goal, error) {
	args := m.Called(ctx, summary, n)
	if v := args.Get(0); v != nil {
		return v.([]gateway.Goal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGenerator) Visualize(ctx context.Context, summary json.RawMessage, goal gateway.Goal, instruction string) (*gateway.Artifact, error) {
	args := m.Called(ctx, summary, goal, instruction)
	if v := args.Get(0); v != nil {
		return v.(*gateway.Artifact), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingPublisher captures domain events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// recordingJobs captures archive/realtime job payloads.
type recordingJobs struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingJobs) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingJobs) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}
