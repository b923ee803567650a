package domain

import "time"

// Session is a chat thread inside a project.
type Session struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionWithProject is a session joined with its owning project, as needed
// by the turn orchestrator and the export.
type SessionWithProject struct {
	Session
	Project Project
}

// MessageRole identifies who authored a chat message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is an append-only chat message.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ChatMode selects the coaching style of the assistant
type ChatMode string

const (
	ChatModeCoach    ChatMode = "coach"
	ChatModePlanning ChatMode = "planning"
	ChatModeDebug    ChatMode = "debug"
)

// ParseChatMode returns the mode for s, defaulting to coach when s is empty.
func ParseChatMode(s string) (ChatMode, error) {
	switch ChatMode(s) {
	case "":
		return ChatModeCoach, nil
	case ChatModeCoach, ChatModePlanning, ChatModeDebug:
		return ChatMode(s), nil
	}
	return "", ErrInvalidChatMode
}

// Language is the answer language requested by the student
type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
)

// ParseLanguage returns the language for s, defaulting to French when s is empty.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case "":
		return LanguageFrench, nil
	case LanguageFrench, LanguageEnglish:
		return Language(s), nil
	}
	return "", ErrInvalidLanguage
}
