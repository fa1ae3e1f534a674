package implementation

import (
	"context"
	"encoding/json"
	"testing"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/repository/contract"
	"ai-dataviz-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSession(t *testing.T, repo contract.SessionRepository, userId uuid.UUID) *entity.Session {
	t.Helper()
	session := &entity.Session{
		UserId:     userId,
		Title:      "Cars",
		DatasetUrl: "https://example.com/cars.csv",
	}
	require.NoError(t, repo.Create(context.Background(), session))
	return session
}

func TestSessionRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	userId := seedUser(t, db, 0)

	session := createSession(t, repo, userId)
	assert.NotEqual(t, uuid.Nil, session.Id)
	assert.Equal(t, 1, session.Version)

	found, err := repo.FindOne(ctx, specification.ByID{ID: session.Id}, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Cars", found.Title)
	assert.Empty(t, found.Goals)
	assert.Empty(t, found.Visualizations)
	assert.False(t, found.HasSummary())

	other, err := repo.FindOne(ctx, specification.ByID{ID: session.Id}, specification.UserOwnedBy{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSessionRepository_UpdateIfVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	session := createSession(t, repo, seedUser(t, db, 0))

	first, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	stale, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)

	first.Goals = append(first.Goals, entity.Goal{Question: "What drives mpg?"})
	ok, err := repo.UpdateIfVersion(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, first.Version)

	// A writer holding the old version must not clobber the newer document.
	stale.Title = "Overwritten"
	ok, err = repo.UpdateIfVersion(ctx, stale)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.Equal(t, "Cars", stored.Title)
	assert.Equal(t, 2, stored.Version)
	require.Len(t, stored.Goals, 1)
	assert.Equal(t, "What drives mpg?", stored.Goals[0].Question)
}

func TestSessionRepository_SetSummaryIfEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	session := createSession(t, repo, seedUser(t, db, 0))

	ok, err := repo.SetSummaryIfEmpty(ctx, session.Id, json.RawMessage(`{"name":"cars"}`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetSummaryIfEmpty(ctx, session.Id, json.RawMessage(`{"name":"other"}`))
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"cars"}`, string(stored.DatasetSummary))
	assert.Equal(t, 2, stored.Version)
}

func TestSessionRepository_FindAllNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	userId := seedUser(t, db, 0)

	older := createSession(t, repo, userId)
	newer := createSession(t, repo, userId)
	createSession(t, repo, seedUser(t, db, 0))

	sessions, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.Id, sessions[0].Id)
	assert.Equal(t, older.Id, sessions[1].Id)

	count, err := repo.Count(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
