package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unipilot/unipilot/internal/domain"
)

// ProjectRepositoryInterface defines the interface for project persistence
type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Project, error)
}

// UUIDGenerator defines the interface for generating UUIDs
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator uses google/uuid to generate UUIDs
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

var errTitleRequired = domain.NewDomainError(domain.ErrCodeValidation, "title is required")
var errUserRequired = domain.NewDomainError(domain.ErrCodeValidation, "user id is required")

// ProjectService manages student projects
type ProjectService struct {
	repo    ProjectRepositoryInterface
	uuidGen UUIDGenerator
	now     func() time.Time
}

func NewProjectService(repo ProjectRepositoryInterface) *ProjectService {
	return NewProjectServiceWithUUIDGen(repo, &DefaultUUIDGenerator{})
}

func NewProjectServiceWithUUIDGen(repo ProjectRepositoryInterface, uuidGen UUIDGenerator) *ProjectService {
	return &ProjectService{
		repo:    repo,
		uuidGen: uuidGen,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateProjectInput contains the input for creating a project
type CreateProjectInput struct {
	UserID      string
	Title       string
	Level       string
	Domain      string
	Stack       string
	Constraints string
}

func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, errUserRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errTitleRequired
	}

	p := domain.NewProject(s.uuidGen.NewString(), input.UserID, title, s.now())
	p.Level = strings.TrimSpace(input.Level)
	p.Domain = strings.TrimSpace(input.Domain)
	p.Stack = strings.TrimSpace(input.Stack)
	p.Constraints = strings.TrimSpace(input.Constraints)

	if err := domain.ValidateProject(p); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid project", err)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the user's projects, newest first
func (s *ProjectService) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns a project owned by userID. Projects of other users are
// reported as not found.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	return loadOwnedProject(ctx, s.repo, userID, projectID)
}

func loadOwnedProject(ctx context.Context, repo ProjectRepositoryInterface, userID, projectID string) (*domain.Project, error) {
	p, err := repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrProjectNotFound
	}
	return p, nil
}
