package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	now := time.Now()
	project := NewProject("proj1", "user1", "Compiler Project", now)

	assert.Equal(t, "proj1", project.ID)
	assert.Equal(t, "user1", project.UserID)
	assert.Equal(t, "Compiler Project", project.Title)
	assert.Equal(t, now, project.CreatedAt)
	assert.Equal(t, now, project.UpdatedAt)
	assert.Empty(t, project.Level)
}

func TestValidateProject(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		project *Project
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid project",
			project: &Project{ID: "proj1", UserID: "user1", Title: "Compiler Project", CreatedAt: now},
			wantErr: false,
		},
		{
			name:    "nil project",
			project: nil,
			wantErr: true,
			errMsg:  "nil",
		},
		{
			name:    "missing ID",
			project: &Project{UserID: "user1", Title: "Compiler Project", CreatedAt: now},
			wantErr: true,
			errMsg:  "ID",
		},
		{
			name:    "missing UserID",
			project: &Project{ID: "proj1", Title: "Compiler Project", CreatedAt: now},
			wantErr: true,
			errMsg:  "UserID",
		},
		{
			name:    "missing Title",
			project: &Project{ID: "proj1", UserID: "user1", CreatedAt: now},
			wantErr: true,
			errMsg:  "Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProject(tt.project)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}
