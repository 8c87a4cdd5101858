// Package chat implements the assistant conversation: transcript storage
// around a chat completion provider.
package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/logger"
	"microwallet/internal/metrics"
)

const (
	maxMessageLength = 2000
	contextMessages  = 20
	historyMessages  = 50
)

const systemPrompt = `You are Protege, an academic assistant and calculator for students.
You help with mathematics, physics, chemistry and everyday calculations such as
percentages, unit conversions and simple finance.

Be clear and concise. Show your working step by step, use standard notation,
and say plainly when a question is outside what you can help with.

When solving a problem, lay out what is given, the method or formula used,
the working, and the final answer.`

const (
	msgTimeout  = "AI took too long to respond. Try again."
	msgUpstream = "AI service error. Try again shortly."
	msgOther    = "Something went wrong. Please try again."
)

// Store persists the per-user transcript
type Store interface {
	AppendMessage(ctx context.Context, m *domain.ChatMessage) error
	RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.ChatMessage, error)
	ClearMessages(ctx context.Context, userID int64) error
}

// Completer produces an assistant reply for a conversation
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Service struct {
	store     Store
	completer Completer
}

func NewService(store Store, completer Completer) *Service {
	return &Service{store: store, completer: completer}
}

// Send records the user's message, asks the provider for a reply using the
// recent transcript as context, and records the reply.
func (s *Service) Send(ctx context.Context, userID int64, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.Validation("Message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return "", apperr.Validation("Message too long (max 2000 chars)")
	}

	s.save(ctx, userID, domain.ChatRoleUser, message)

	history, err := s.store.RecentMessages(ctx, userID, contextMessages)
	if err != nil {
		logger.WithContext(ctx).Warn("failed to load chat context", "user_id", userID, "error", err)
		history = []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: message}}
	}

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, Message{Role: string(m.Role), Content: m.Content})
	}

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return "", s.providerFailure(ctx, userID, err)
	}

	s.save(ctx, userID, domain.ChatRoleAssistant, reply)
	return reply, nil
}

// History returns up to the latest 50 messages, oldest first
func (s *Service) History(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	return s.store.RecentMessages(ctx, userID, historyMessages)
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.store.ClearMessages(ctx, userID)
}

// save never fails the request; a lost transcript line is only logged
func (s *Service) save(ctx context.Context, userID int64, role domain.ChatRole, content string) {
	err := s.store.AppendMessage(ctx, &domain.ChatMessage{UserID: userID, Role: role, Content: content})
	if err != nil {
		logger.WithContext(ctx).Warn("failed to save chat message", "user_id", userID, "role", role, "error", err)
	}
}

func (s *Service) providerFailure(ctx context.Context, userID int64, err error) error {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		pe = &ProviderError{Kind: KindOther, Err: err}
	}
	metrics.ChatProviderErrors.WithLabelValues(pe.Kind.String()).Inc()
	logger.WithContext(ctx).Error("chat provider failed", "user_id", userID, "kind", pe.Kind.String(),
		"status", pe.StatusCode, "error", pe.Err)

	switch pe.Kind {
	case KindTimeout:
		return apperr.Wrap(apperr.KindUpstreamTimeout, msgTimeout, err)
	case KindStatus:
		return apperr.Wrap(apperr.KindUpstream, msgUpstream, err)
	default:
		return apperr.Wrap(apperr.KindInternal, msgOther, err)
	}
}
