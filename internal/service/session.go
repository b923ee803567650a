package service

import (
	"context"
	"strings"
	"time"

	"github.com/unipilot/unipilot/internal/domain"
)

const (
	// DefaultCheatEventTake is the number of anti-cheat events listed by default
	DefaultCheatEventTake = 50
	// MaxCheatEventTake caps the number of anti-cheat events listed
	MaxCheatEventTake = 200
)

// SessionRepositoryInterface defines the interface for session persistence
type SessionRepositoryInterface interface {
	Create(ctx context.Context, s *domain.Session) error
	GetWithProject(ctx context.Context, id string) (*domain.SessionWithProject, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Session, error)
}

// CheatEventRepositoryInterface defines the interface for anti-cheat audit records
type CheatEventRepositoryInterface interface {
	Create(ctx context.Context, e *domain.CheatEvent) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.CheatEvent, error)
}

// SessionService manages chat sessions of a project
type SessionService struct {
	sessions SessionRepositoryInterface
	projects ProjectRepositoryInterface
	events   CheatEventRepositoryInterface
	uuidGen  UUIDGenerator
	now      func() time.Time
}

func NewSessionService(sessions SessionRepositoryInterface, projects ProjectRepositoryInterface, events CheatEventRepositoryInterface) *SessionService {
	return NewSessionServiceWithUUIDGen(sessions, projects, events, &DefaultUUIDGenerator{})
}

func NewSessionServiceWithUUIDGen(sessions SessionRepositoryInterface, projects ProjectRepositoryInterface, events CheatEventRepositoryInterface, uuidGen UUIDGenerator) *SessionService {
	return &SessionService{
		sessions: sessions,
		projects: projects,
		events:   events,
		uuidGen:  uuidGen,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a session in a project owned by userID
func (s *SessionService) Create(ctx context.Context, userID, projectID, name string) (*domain.Session, error) {
	if _, err := loadOwnedProject(ctx, s.projects, userID, projectID); err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        s.uuidGen.NewString(),
		ProjectID: projectID,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// List returns the sessions of a project, newest first
func (s *SessionService) List(ctx context.Context, userID, projectID string) ([]*domain.Session, error) {
	if _, err := loadOwnedProject(ctx, s.projects, userID, projectID); err != nil {
		return nil, err
	}
	return s.sessions.ListByProject(ctx, projectID)
}

// AntiCheatEvents lists the newest audit records of a session. take is
// clamped to MaxCheatEventTake and defaults to DefaultCheatEventTake.
func (s *SessionService) AntiCheatEvents(ctx context.Context, userID, sessionID string, take int) ([]*domain.CheatEvent, error) {
	if _, err := loadOwnedSession(ctx, s.sessions, userID, sessionID); err != nil {
		return nil, err
	}
	return s.events.ListBySession(ctx, sessionID, clampTake(take))
}

func clampTake(take int) int {
	switch {
	case take <= 0:
		return DefaultCheatEventTake
	case take > MaxCheatEventTake:
		return MaxCheatEventTake
	default:
		return take
	}
}

func loadOwnedSession(ctx context.Context, repo SessionRepositoryInterface, userID, sessionID string) (*domain.SessionWithProject, error) {
	s, err := repo.GetWithProject(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Project.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}
