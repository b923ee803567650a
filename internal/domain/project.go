package domain

import (
	"fmt"
	"time"
)

// Project is a student project owned by a user. Its free-text fields are used
// verbatim when building the prompt.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Level       string    `json:"level,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	Stack       string    `json:"stack,omitempty"`
	Constraints string    `json:"constraints,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProject creates a new Project instance
func NewProject(id, userID, title string, createdAt time.Time) *Project {
	return &Project{
		ID:        id,
		UserID:    userID,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ValidateProject validates a Project instance
func ValidateProject(p *Project) error {
	if p == nil {
		return fmt.Errorf("project cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("project ID is required")
	}

	if p.UserID == "" {
		return fmt.Errorf("project UserID is required")
	}

	if p.Title == "" {
		return fmt.Errorf("project Title is required")
	}

	return nil
}
