package chat

import (
	"context"
	"errors"
	"testing"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply string
	err   error
	seen  []Message
}

func (s *stubCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	s.seen = messages
	return s.reply, s.err
}

type failingStore struct{ *memory.Store }

func (failingStore) AppendMessage(context.Context, *domain.ChatMessage) error {
	return errors.New("db down")
}

func TestSendRecordsBothTurns(t *testing.T) {
	store := memory.New()
	llm := &stubCompleter{reply: "x = 2"}
	svc := NewService(store, llm)
	ctx := context.Background()

	reply, err := svc.Send(ctx, 7, "  solve 2x = 4  ")
	require.NoError(t, err)
	assert.Equal(t, "x = 2", reply)

	require.Len(t, llm.seen, 2)
	assert.Equal(t, "system", llm.seen[0].Role)
	assert.Equal(t, Message{Role: "user", Content: "solve 2x = 4"}, llm.seen[1])

	history, err := svc.History(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChatRoleUser, history[0].Role)
	assert.Equal(t, domain.ChatRoleAssistant, history[1].Role)
}

func TestSendContextIsBounded(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		require.NoError(t, store.AppendMessage(ctx, &domain.ChatMessage{UserID: 1, Role: domain.ChatRoleUser, Content: "old"}))
	}
	llm := &stubCompleter{reply: "ok"}

	_, err := NewService(store, llm).Send(ctx, 1, "latest")
	require.NoError(t, err)
	require.Len(t, llm.seen, 1+contextMessages)
	assert.Equal(t, "latest", llm.seen[len(llm.seen)-1].Content)
}

func TestSendValidation(t *testing.T) {
	svc := NewService(memory.New(), &stubCompleter{})
	_, err := svc.Send(context.Background(), 1, "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Message is required", apperr.PublicMessage(err))

	long := make([]rune, 2001)
	for i := range long {
		long[i] = 'é'
	}
	_, err = svc.Send(context.Background(), 1, string(long))
	assert.Equal(t, "Message too long (max 2000 chars)", apperr.PublicMessage(err))
}

func TestSendMapsProviderErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind apperr.Kind
		msg  string
	}{
		{&ProviderError{Kind: KindTimeout}, apperr.KindUpstreamTimeout, "AI took too long to respond. Try again."},
		{&ProviderError{Kind: KindStatus, StatusCode: 500}, apperr.KindUpstream, "AI service error. Try again shortly."},
		{&ProviderError{Kind: KindOther}, apperr.KindInternal, "Something went wrong. Please try again."},
		{errors.New("unexpected"), apperr.KindInternal, "Something went wrong. Please try again."},
	}
	for _, tc := range cases {
		store := memory.New()
		_, err := NewService(store, &stubCompleter{err: tc.err}).Send(context.Background(), 1, "hi")
		assert.Equal(t, tc.kind, apperr.KindOf(err))
		assert.Equal(t, tc.msg, apperr.PublicMessage(err))
		assert.GreaterOrEqual(t, apperr.HTTPStatus(tc.kind), 500)

		history, _ := store.RecentMessages(context.Background(), 1, 10)
		assert.Len(t, history, 1, "only the user turn is stored")
	}
}

func TestSendSurvivesTranscriptFailure(t *testing.T) {
	svc := NewService(failingStore{memory.New()}, &stubCompleter{reply: "fine"})
	reply, err := svc.Send(context.Background(), 1, "hi")
	require.NoError(t, err)
	assert.Equal(t, "fine", reply)
}

func TestClear(t *testing.T) {
	store := memory.New()
	svc := NewService(store, &stubCompleter{reply: "r"})
	ctx := context.Background()
	_, err := svc.Send(ctx, 3, "q")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, 3))
	history, err := svc.History(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, history)
}
