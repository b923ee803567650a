package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/metrics"
	"github.com/unipilot/unipilot/internal/telemetry"
)

const (
	// DefaultHistoryWindow is the number of previous messages given to the model
	DefaultHistoryWindow = 10
	// DefaultHistoryMaxChars bounds each history entry
	DefaultHistoryMaxChars = 800
)

// MessageRepositoryInterface defines the interface for chat message persistence
type MessageRepositoryInterface interface {
	Create(ctx context.Context, m *domain.Message) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Message, error)
	ListRecent(ctx context.Context, sessionID string, limit int) ([]*domain.Message, error)
}

// SessionLocker serializes turns of one session
type SessionLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ContextBuilder renders the retrieved sources of a project for a query
type ContextBuilder interface {
	BuildContext(ctx context.Context, projectID, query string, k int) string
}

// ChatServiceConfig wires the collaborators of a ChatService
type ChatServiceConfig struct {
	Sessions        SessionRepositoryInterface
	Messages        MessageRepositoryInterface
	Events          CheatEventRepositoryInterface
	Retrieval       ContextBuilder
	Generator       Generator
	Locker          SessionLocker
	UUIDGen         UUIDGenerator
	Logger          *zap.Logger
	TopK            int
	HistoryWindow   int
	HistoryMaxChars int
}

// ChatService runs tutoring turns
type ChatService struct {
	sessions        SessionRepositoryInterface
	messages        MessageRepositoryInterface
	events          CheatEventRepositoryInterface
	retrieval       ContextBuilder
	generator       Generator
	locker          SessionLocker
	uuidGen         UUIDGenerator
	logger          *zap.Logger
	topK            int
	historyWindow   int
	historyMaxChars int
	now             func() time.Time
}

func NewChatService(cfg ChatServiceConfig) *ChatService {
	s := &ChatService{
		sessions:        cfg.Sessions,
		messages:        cfg.Messages,
		events:          cfg.Events,
		retrieval:       cfg.Retrieval,
		generator:       cfg.Generator,
		locker:          cfg.Locker,
		uuidGen:         cfg.UUIDGen,
		logger:          cfg.Logger,
		topK:            cfg.TopK,
		historyWindow:   cfg.HistoryWindow,
		historyMaxChars: cfg.HistoryMaxChars,
		now:             func() time.Time { return time.Now().UTC() },
	}
	if s.uuidGen == nil {
		s.uuidGen = &DefaultUUIDGenerator{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.topK <= 0 {
		s.topK = DefaultTopK
	}
	if s.historyWindow <= 0 {
		s.historyWindow = DefaultHistoryWindow
	}
	if s.historyMaxChars <= 0 {
		s.historyMaxChars = DefaultHistoryMaxChars
	}
	return s
}

// SendInput contains a student message
type SendInput struct {
	UserID    string
	SessionID string
	Message   string
	Mode      domain.ChatMode
	Language  domain.Language
}

// TurnMeta describes how a turn was answered
type TurnMeta struct {
	Mode      domain.ChatMode `json:"mode"`
	Model     string          `json:"model"`
	LatencyMs int64           `json:"latencyMs"`
}

// TurnResult is the outcome of a successful turn
type TurnResult struct {
	SessionID string          `json:"sessionId"`
	Assistant *domain.Message `json:"assistant"`
	AntiCheat CheatDetection  `json:"antiCheat"`
	Meta      TurnMeta        `json:"meta"`
}

// Send runs one turn: classify, persist the user message, build the prompt
// from project, sources and history, generate, then persist the answer.
func (s *ChatService) Send(ctx context.Context, input SendInput) (*TurnResult, error) {
	session, err := loadOwnedSession(ctx, s.sessions, input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		metrics.ChatTurnsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, domain.ErrEmptyMessage
	}
	mode := input.Mode
	if mode == "" {
		mode = domain.ChatModeCoach
	}
	language := input.Language
	if language == "" {
		language = domain.LanguageFrench
	}

	ctx, span := telemetry.StartSpan(ctx, "service.chat.send", telemetry.SpanAttributes{
		UserID:    input.UserID,
		ProjectID: session.ProjectID,
		SessionID: session.ID,
		Operation: "send",
	})
	defer span.End()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "session:"+session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		defer release()
	}

	detection := DetectCheating(message)
	metrics.AntiCheatDetections.WithLabelValues(string(detection.Label)).Inc()
	telemetry.AddBreadcrumb(ctx, "anticheat", string(detection.Label)+": "+detection.Reason)
	s.recordCheatEvent(ctx, session.ID, mode, message, detection)

	userMsg := s.newMessage(session.ID, domain.MessageRoleUser, message)
	if err := s.messages.Create(ctx, userMsg); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	recent, err := s.messages.ListRecent(ctx, session.ID, s.historyWindow)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var sources string
	if s.retrieval != nil {
		sources = s.retrieval.BuildContext(ctx, session.ProjectID, message, s.topK)
	}

	prompt := BuildPrompt(PromptParts{
		Mode:      mode,
		Language:  language,
		AntiCheat: AntiCheatInstruction(detection),
		Project:   ProjectContext(&session.Project),
		Sources:   sources,
		History:   RenderHistory(recent, message, s.historyMaxChars),
		Message:   message,
	})

	start := time.Now()
	generated, err := s.generator.Generate(ctx, prompt)
	latency := time.Since(start)
	if err != nil {
		s.recordGenerationFailure(ctx, span, session, err, latency)
		return nil, err
	}
	metrics.GenerationLatency.Observe(latency.Seconds())

	assistantMsg := s.newMessage(session.ID, domain.MessageRoleAssistant, generated.Text)
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}
	metrics.ChatTurnsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()

	s.logger.Info("chat turn completed",
		zap.String("session_id", session.ID),
		zap.String("mode", string(mode)),
		zap.String("anti_cheat", string(detection.Label)),
		zap.String("model", generated.Model),
		zap.Bool("sources", sources != ""),
		zap.Duration("latency", latency),
	)

	return &TurnResult{
		SessionID: session.ID,
		Assistant: assistantMsg,
		AntiCheat: detection,
		Meta: TurnMeta{
			Mode:      mode,
			Model:     generated.Model,
			LatencyMs: latency.Milliseconds(),
		},
	}, nil
}

func (s *ChatService) newMessage(sessionID string, role domain.MessageRole, content string) *domain.Message {
	return &domain.Message{
		ID:        s.uuidGen.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
}

// recordCheatEvent writes the audit record. A failure never blocks the turn.
func (s *ChatService) recordCheatEvent(ctx context.Context, sessionID string, mode domain.ChatMode, message string, d CheatDetection) {
	event := &domain.CheatEvent{
		ID:        s.uuidGen.NewString(),
		SessionID: sessionID,
		Label:     d.Label,
		Reason:    d.Reason,
		Mode:      mode,
		Message:   truncateRunes(message, domain.CheatEventMessageLimit),
		CreatedAt: s.now(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Warn("failed to record anti-cheat event",
			zap.String("session_id", sessionID),
			zap.String("label", string(d.Label)),
			zap.Error(err),
		)
	}
}

func (s *ChatService) recordGenerationFailure(ctx context.Context, span *telemetry.Span, session *domain.SessionWithProject, err error, latency time.Duration) {
	fields := []zap.Field{
		zap.String("session_id", session.ID),
		zap.String("project_id", session.ProjectID),
		zap.Duration("latency", latency),
		zap.Error(err),
	}

	switch {
	case errors.Is(err, domain.ErrModelTimeout):
		metrics.ChatTurnsTotal.WithLabelValues(metrics.OutcomeTimeout).Inc()
		s.logger.Warn("generation timed out", fields...)
	case errors.Is(err, domain.ErrModelUpstream):
		metrics.ChatTurnsTotal.WithLabelValues(metrics.OutcomeUpstream).Inc()
		s.logger.Warn("generation provider error", fields...)
	default:
		metrics.ChatTurnsTotal.WithLabelValues(metrics.OutcomeUnexpected).Inc()
		s.logger.Error("unexpected generation error", fields...)
		span.SetError(err)
	}
}

// History returns all messages of a session in persisted order
func (s *ChatService) History(ctx context.Context, userID, sessionID string) ([]*domain.Message, error) {
	if _, err := loadOwnedSession(ctx, s.sessions, userID, sessionID); err != nil {
		return nil, err
	}
	return s.messages.ListBySession(ctx, sessionID)
}
