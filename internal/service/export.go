package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unipilot/unipilot/internal/domain"
)

// ExportFormat selects the rendering of a session export
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "md"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat defaults to Markdown.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportFormatMarkdown:
		return ExportFormatMarkdown, nil
	case ExportFormatJSON:
		return ExportFormatJSON, nil
	}
	return "", domain.ErrInvalidExportFormat
}

// ExportProject identifies the project of an exported session
type ExportProject struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ExportSession identifies an exported session
type ExportSession struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportMessage is one message of an export
type ExportMessage struct {
	Role      domain.MessageRole `json:"role"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"createdAt"`
}

// SessionExport is the structured export of a session
type SessionExport struct {
	Project     ExportProject   `json:"project"`
	Session     ExportSession   `json:"session"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Messages    []ExportMessage `json:"messages"`
}

// Export builds the export of a session. Messages keep their persisted order.
func (s *ChatService) Export(ctx context.Context, userID, sessionID string) (*SessionExport, error) {
	session, err := loadOwnedSession(ctx, s.sessions, userID, sessionID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	export := &SessionExport{
		Project: ExportProject{ID: session.Project.ID, Title: session.Project.Title},
		Session: ExportSession{
			ID:        session.ID,
			Name:      session.Name,
			CreatedAt: session.CreatedAt,
		},
		GeneratedAt: s.now(),
		Messages:    make([]ExportMessage, 0, len(messages)),
	}
	for _, m := range messages {
		export.Messages = append(export.Messages, ExportMessage{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return export, nil
}

// RenderMarkdown renders an export as a Markdown document with one heading
// per message.
func RenderMarkdown(e *SessionExport) string {
	var b strings.Builder
	b.WriteString("# UniPilot Chat Export\n\n")
	fmt.Fprintf(&b, "- Project: %s (%s)\n", e.Project.Title, e.Project.ID)
	name := e.Session.Name
	if name == "" {
		name = "Session"
	}
	fmt.Fprintf(&b, "- Session: %s (%s)\n", name, e.Session.ID)
	fmt.Fprintf(&b, "- Generated: %s\n", e.GeneratedAt.UTC().Format(time.RFC3339))

	for _, m := range e.Messages {
		heading := "User"
		if m.Role == domain.MessageRoleAssistant {
			heading = "Assistant"
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", heading, m.Content)
	}
	return b.String()
}
