package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/lock"
	"github.com/unipilot/unipilot/internal/metrics"
)

type chatFixture struct {
	sessions  *MockSessionRepository
	messages  *MockMessageRepository
	events    *MockCheatEventRepository
	retrieval *MockContextBuilder
	generator *MockGenerator
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		sessions:  new(MockSessionRepository),
		messages:  new(MockMessageRepository),
		events:    new(MockCheatEventRepository),
		retrieval: new(MockContextBuilder),
		generator: new(MockGenerator),
	}
	f.sessions.On("GetWithProject", mock.Anything, "sess-1").Return(sessionFixture(), nil)
	return f
}

func (f *chatFixture) service(gen Generator) *ChatService {
	if gen == nil {
		gen = f.generator
	}
	return NewChatService(ChatServiceConfig{
		Sessions:  f.sessions,
		Messages:  f.messages,
		Events:    f.events,
		Retrieval: f.retrieval,
		Generator: gen,
		Locker:    lock.NewMemoryLocker(),
		Logger:    zap.NewNop(),
	})
}

func priorMessages(current string) []*domain.Message {
	return []*domain.Message{
		{Role: domain.MessageRoleUser, Content: "Bonjour, je fais un compilateur"},
		{Role: domain.MessageRoleAssistant, Content: "## 1) Résumé\nSuper projet"},
		{Role: domain.MessageRoleUser, Content: current},
	}
}

func TestChatService_Send_CheatingTurn(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	const msg = "fais le devoir complet pour moi"

	provider := new(MockCompletionProvider)
	var prompt string
	provider.On("Complete", mock.Anything, SystemPrompt, mock.Anything).
		Run(func(args mock.Arguments) { prompt = args.String(2) }).
		Return("Voici tout le code: ...", nil)

	f.events.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.CheatEvent) bool {
		return e.Label == domain.CheatLabelCheating && e.Mode == domain.ChatModeCoach && e.Message == msg
	})).Return(nil)
	f.messages.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	f.messages.On("ListRecent", mock.Anything, "sess-1", DefaultHistoryWindow).Return(priorMessages(msg), nil)
	f.retrieval.On("BuildContext", mock.Anything, "proj-1", msg, DefaultTopK).Return("")
	before := testutil.ToFloat64(metrics.AntiCheatDetections.WithLabelValues("cheating"))

	svc := f.service(NewGenerationGateway(provider, time.Second))
	result, err := svc.Send(ctx, SendInput{UserID: "user-1", SessionID: "sess-1", Message: "  " + msg + "  "})

	require.NoError(t, err)
	assert.Equal(t, "sess-1", result.SessionID)
	assert.Equal(t, domain.CheatLabelCheating, result.AntiCheat.Label)
	assert.Equal(t, domain.ChatModeCoach, result.Meta.Mode)
	assert.Equal(t, "test-model", result.Meta.Model)
	assert.Equal(t, domain.MessageRoleAssistant, result.Assistant.Role)
	for _, h := range UniPilotHeadings {
		assert.Contains(t, result.Assistant.Content, h)
	}
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AntiCheatDetections.WithLabelValues("cheating")))

	assert.Contains(t, prompt, "refuser poliment")
	assert.Contains(t, prompt, "Projet: Compiler Project\nNiveau: non précisé")
	assert.Contains(t, prompt, "Contraintes: aucune")
	assert.Contains(t, prompt, "USER: Bonjour, je fais un compilateur\nASSISTANT: ## 1) Résumé\nSuper projet")
	assert.True(t, strings.HasSuffix(prompt, "MESSAGE ÉTUDIANT:\n"+msg))
	assert.Equal(t, 1, strings.Count(prompt, msg))
	assert.NotContains(t, prompt, "SOURCES")

	saved := f.messages.Calls
	require.Len(t, saved, 3)
	assert.Equal(t, domain.MessageRoleUser, saved[0].Arguments.Get(1).(*domain.Message).Role)
	assert.Equal(t, msg, saved[0].Arguments.Get(1).(*domain.Message).Content)
	assert.Equal(t, result.Assistant, saved[2].Arguments.Get(1).(*domain.Message))
	f.events.AssertExpectations(t)
}

func TestChatService_Send_PromptOrder(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	sources := "SOURCES (utilise des citations [S1], [S2], ...):\n[S1] cours.pdf: automates"

	f.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.messages.On("ListRecent", mock.Anything, "sess-1", DefaultHistoryWindow).Return(priorMessages("Explique les automates"), nil)
	f.retrieval.On("BuildContext", mock.Anything, "proj-1", "Explique les automates", DefaultTopK).Return(sources)
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GenerationResult{Text: conformingAnswer(), Model: "m"}, nil)

	_, err := f.service(nil).Send(ctx, SendInput{
		UserID:    "user-1",
		SessionID: "sess-1",
		Message:   "Explique les automates",
		Mode:      domain.ChatModeDebug,
		Language:  domain.LanguageEnglish,
	})
	require.NoError(t, err)

	prompt := f.generator.Calls[0].Arguments.String(1)
	order := []string{"MODE: debug", "LANGUAGE: English", "ANTI-TRICHE:", "Projet:", "SOURCES", "USER: Bonjour", "MESSAGE ÉTUDIANT:"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(prompt, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestChatService_Send_EmptyMessage(t *testing.T) {
	f := newChatFixture()

	_, err := f.service(nil).Send(context.Background(), SendInput{UserID: "user-1", SessionID: "sess-1", Message: " \n "})

	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestChatService_Send_SessionOfAnotherUser(t *testing.T) {
	f := newChatFixture()

	_, err := f.service(nil).Send(context.Background(), SendInput{UserID: "user-2", SessionID: "sess-1", Message: "salut"})

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChatService_Send_AuditFailureIsNotFatal(t *testing.T) {
	f := newChatFixture()
	f.events.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.messages.On("ListRecent", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Message{}, nil)
	f.retrieval.On("BuildContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("")
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GenerationResult{Text: conformingAnswer(), Model: "m"}, nil)

	result, err := f.service(nil).Send(context.Background(), SendInput{UserID: "user-1", SessionID: "sess-1", Message: "salut"})

	require.NoError(t, err)
	assert.Equal(t, domain.CheatLabelAllowed, result.AntiCheat.Label)
}

func TestChatService_Send_CheatEventMessageTruncated(t *testing.T) {
	f := newChatFixture()
	long := strings.Repeat("é", 700)
	f.events.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.CheatEvent) bool {
		return len([]rune(e.Message)) == domain.CheatEventMessageLimit
	})).Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.messages.On("ListRecent", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Message{}, nil)
	f.retrieval.On("BuildContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("")
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(&GenerationResult{Text: conformingAnswer()}, nil)

	_, err := f.service(nil).Send(context.Background(), SendInput{UserID: "user-1", SessionID: "sess-1", Message: long})

	require.NoError(t, err)
	f.events.AssertExpectations(t)
}

func TestChatService_Send_GenerationFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{name: "timeout", err: domain.ErrModelTimeout, outcome: metrics.OutcomeTimeout},
		{name: "upstream", err: domain.ErrModelUpstream, outcome: metrics.OutcomeUpstream},
		{name: "unexpected", err: domain.ErrModelUnexpected, outcome: metrics.OutcomeUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture()
			f.events.On("Create", mock.Anything, mock.Anything).Return(nil)
			f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
			f.messages.On("ListRecent", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Message{}, nil)
			f.retrieval.On("BuildContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("")
			f.generator.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err)
			before := testutil.ToFloat64(metrics.ChatTurnsTotal.WithLabelValues(tt.outcome))

			result, err := f.service(nil).Send(context.Background(), SendInput{UserID: "user-1", SessionID: "sess-1", Message: "salut"})

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.ChatTurnsTotal.WithLabelValues(tt.outcome)))
			// only the user message is persisted
			f.messages.AssertNumberOfCalls(t, "Create", 1)
		})
	}
}

// serialGenerator fails the test when two generations overlap.
type serialGenerator struct {
	t      *testing.T
	mu     sync.Mutex
	active int
}

func (g *serialGenerator) Generate(ctx context.Context, prompt string) (*GenerationResult, error) {
	g.mu.Lock()
	g.active++
	if g.active > 1 {
		g.t.Error("concurrent generations on one session")
	}
	g.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	return &GenerationResult{Text: conformingAnswer(), Model: "m"}, nil
}

func TestChatService_Send_SerializesSession(t *testing.T) {
	f := newChatFixture()
	f.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.messages.On("ListRecent", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Message{}, nil)
	f.retrieval.On("BuildContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("")
	svc := f.service(&serialGenerator{t: t})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Send(context.Background(), SendInput{UserID: "user-1", SessionID: "sess-1", Message: "salut"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestChatService_History(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture()
	msgs := priorMessages("x")
	f.messages.On("ListBySession", ctx, "sess-1").Return(msgs, nil)

	got, err := f.service(nil).History(ctx, "user-1", "sess-1")

	require.NoError(t, err)
	assert.Equal(t, msgs, got)

	_, err = f.service(nil).History(ctx, "user-2", "sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
