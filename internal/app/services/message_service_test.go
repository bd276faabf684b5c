package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories/memstore"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConsumer struct {
	mu       sync.Mutex
	received []*models.Message
}

func (c *recordingConsumer) OnMessageReceived(_ context.Context, message *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, message)
}

func newMessageFixture(t *testing.T) (*fixture, MessageService, *recordingConsumer) {
	f := newFixture(t)
	consumer := &recordingConsumer{}
	return f, NewMessageService(f.store, consumer, zerolog.Nop()), consumer
}

func TestSendDeliversToConsumer(t *testing.T) {
	f, messages, consumer := newMessageFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")

	m, err := messages.Send(f.ctx, ngo, expert.ProfileID, "  Are you available in March?  ")
	require.NoError(t, err)
	assert.Equal(t, "Are you available in March?", m.Content)
	assert.Equal(t, ngo.ProfileID, m.SenderID)
	assert.False(t, m.Read)

	require.Len(t, consumer.received, 1)
	assert.Equal(t, m.ID, consumer.received[0].ID)
}

func TestSendValidation(t *testing.T) {
	f, messages, consumer := newMessageFixture(t)
	ngo := f.newNGO(t, "N1")

	_, err := messages.Send(f.ctx, ngo, ngo.ProfileID, " ")
	var v *apperrors.ValidationError
	require.ErrorAs(t, err, &v)
	assert.ElementsMatch(t, []string{"content", "receiver_id"}, v.FieldNames())

	_, err = messages.Send(f.ctx, ngo, uuid.New(), strings.Repeat("x", validation.MessageMaxLength+1))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = messages.Send(f.ctx, ngo, uuid.New(), "hello")
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)

	assert.Empty(t, consumer.received)
}

func TestConversationMarksIncomingRead(t *testing.T) {
	f, messages, _ := newMessageFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")

	_, err := messages.Send(f.ctx, ngo, expert.ProfileID, "hello")
	require.NoError(t, err)
	_, err = messages.Send(f.ctx, ngo, expert.ProfileID, "are you there?")
	require.NoError(t, err)
	reply, err := messages.Send(f.ctx, expert, ngo.ProfileID, "yes")
	require.NoError(t, err)

	thread, err := messages.Conversation(f.ctx, expert, ngo.ProfileID, 0)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, reply.ID, thread[0].ID)
	for _, m := range thread {
		if m.ReceiverID == expert.ProfileID {
			assert.True(t, m.Read)
		}
	}

	ngoView, err := messages.Conversations(f.ctx, ngo)
	require.NoError(t, err)
	require.Len(t, ngoView, 1)
	assert.Equal(t, 1, ngoView[0].UnreadCount)

	expertView, err := messages.Conversations(f.ctx, expert)
	require.NoError(t, err)
	require.Len(t, expertView, 1)
	assert.Zero(t, expertView[0].UnreadCount)
	assert.Equal(t, ngo.ProfileID, expertView[0].Partner.ID)
	assert.Equal(t, reply.ID, expertView[0].LastMessage.ID)
}

func TestConversationReportsMarkReadFailure(t *testing.T) {
	f, messages, _ := newMessageFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")

	_, err := messages.Send(f.ctx, ngo, expert.ProfileID, "hello")
	require.NoError(t, err)

	f.store.FailNext(memstore.OpMessagesMarkRead, apperrors.NewConnectionError(errors.New("refused")))
	thread, err := messages.Conversation(f.ctx, expert, ngo.ProfileID, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Nil(t, thread)

	expertView, err := messages.Conversations(f.ctx, expert)
	require.NoError(t, err)
	require.Len(t, expertView, 1)
	assert.Equal(t, 1, expertView[0].UnreadCount)
}

func TestConversationsOrderedByLastActivity(t *testing.T) {
	f, messages, _ := newMessageFixture(t)
	ngo := f.newNGO(t, "N1")
	e1 := f.newExpert(t, "E1")
	e2 := f.newExpert(t, "E2")

	_, err := messages.Send(f.ctx, ngo, e1.ProfileID, "to e1")
	require.NoError(t, err)
	_, err = messages.Send(f.ctx, e2, ngo.ProfileID, "from e2")
	require.NoError(t, err)

	list, err := messages.Conversations(f.ctx, ngo)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, e2.ProfileID, list[0].Partner.ID)
	assert.Equal(t, 1, list[0].UnreadCount)
	assert.Equal(t, e1.ProfileID, list[1].Partner.ID)
	assert.Zero(t, list[1].UnreadCount)
}

func TestMarkReadOnlyByReceiver(t *testing.T) {
	f, messages, _ := newMessageFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	outsider := f.newExpert(t, "E2")

	m, err := messages.Send(f.ctx, ngo, expert.ProfileID, "hello")
	require.NoError(t, err)

	errSender := messages.MarkRead(f.ctx, ngo, m.ID)
	errOutsider := messages.MarkRead(f.ctx, outsider, m.ID)
	errMissing := messages.MarkRead(f.ctx, outsider, uuid.New())
	for _, err := range []error{errSender, errOutsider, errMissing} {
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	}
	assert.Equal(t, errOutsider.Error(), errMissing.Error())

	require.NoError(t, messages.MarkRead(f.ctx, expert, m.ID))
	stored, err := f.store.Messages().GetByID(f.ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)

	assert.NoError(t, messages.MarkRead(f.ctx, expert, m.ID))
}
