//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/testutil"
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func createProject(ctx context.Context, t *testing.T, repo *ProjectRepository, userID, title string) *domain.Project {
	t.Helper()
	p := domain.NewProject(uuid.NewString(), userID, title, now())
	require.NoError(t, repo.Create(ctx, p))
	return p
}

func createSession(ctx context.Context, t *testing.T, repo *SessionRepository, projectID string) *domain.Session {
	t.Helper()
	s := &domain.Session{ID: uuid.NewString(), ProjectID: projectID, Name: "Séance 1", CreatedAt: now()}
	require.NoError(t, repo.Create(ctx, s))
	return s
}

func TestProjectRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	repo := NewProjectRepository(pool)

	p := domain.NewProject(uuid.NewString(), "user-1", "Compilateur", now())
	p.Level = "L3"
	p.Stack = "Go"
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "Compilateur", got.Title)
	assert.Equal(t, "L3", got.Level)
	assert.Equal(t, "Go", got.Stack)
	assert.Empty(t, got.Domain)
	assert.Empty(t, got.Constraints)
}

func TestProjectRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	repo := NewProjectRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestProjectRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	repo := NewProjectRepository(pool)

	older := domain.NewProject(uuid.NewString(), "user-1", "Ancien", now().Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, older))
	newer := createProject(ctx, t, repo, "user-1", "Récent")
	createProject(ctx, t, repo, "user-2", "Autre")

	projects, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, newer.ID, projects[0].ID)
	assert.Equal(t, older.ID, projects[1].ID)
}

func TestSessionRepository_GetWithProject(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	projects := NewProjectRepository(pool)
	sessions := NewSessionRepository(pool)

	p := createProject(ctx, t, projects, "user-1", "Compilateur")
	s := createSession(ctx, t, sessions, p.ID)

	got, err := sessions.GetWithProject(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "Séance 1", got.Name)
	assert.Equal(t, p.ID, got.Project.ID)
	assert.Equal(t, "user-1", got.Project.UserID)

	_, err = sessions.GetWithProject(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_Create_ForeignKeyViolation(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	sessions := NewSessionRepository(pool)

	err := sessions.Create(ctx, &domain.Session{ID: uuid.NewString(), ProjectID: uuid.NewString(), CreatedAt: now()})
	assert.Error(t, err)
}

func TestMessageRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	projects := NewProjectRepository(pool)
	sessions := NewSessionRepository(pool)
	messages := NewMessageRepository(pool)

	p := createProject(ctx, t, projects, "user-1", "Compilateur")
	s := createSession(ctx, t, sessions, p.ID)

	base := now()
	for i := 0; i < 12; i++ {
		role := domain.MessageRoleUser
		if i%2 == 1 {
			role = domain.MessageRoleAssistant
		}
		require.NoError(t, messages.Create(ctx, &domain.Message{
			ID:        uuid.NewString(),
			SessionID: s.ID,
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	all, err := messages.ListBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.Equal(t, "message 0", all[0].Content)
	assert.Equal(t, "message 11", all[11].Content)

	recent, err := messages.ListRecent(ctx, s.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, "message 2", recent[0].Content)
	assert.Equal(t, "message 11", recent[9].Content)
	assert.Equal(t, domain.MessageRoleAssistant, recent[9].Role)
}

func TestCheatEventRepository_ListBySession(t *testing.T) {
	ctx := context.Background()
	pool := testutil.StartPostgres(t)
	projects := NewProjectRepository(pool)
	sessions := NewSessionRepository(pool)
	events := NewCheatEventRepository(pool)

	p := createProject(ctx, t, projects, "user-1", "Compilateur")
	s := createSession(ctx, t, sessions, p.ID)

	base := now()
	for i, label := range []domain.CheatLabel{domain.CheatLabelAllowed, domain.CheatLabelBorderline, domain.CheatLabelCheating} {
		require.NoError(t, events.Create(ctx, &domain.CheatEvent{
			ID:        uuid.NewString(),
			SessionID: s.ID,
			Label:     label,
			Reason:    "raison",
			Mode:      domain.ChatModeCoach,
			Message:   "message",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := events.ListBySession(ctx, s.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.CheatLabelCheating, got[0].Label)
	assert.Equal(t, domain.CheatLabelBorderline, got[1].Label)
}
