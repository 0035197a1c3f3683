package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumenr/internal/constants"
	"lumenr/internal/models"
	"lumenr/internal/realtime"
)

// publishingBackend публикует события записи на шину, как это делает
// боевой бекенд поверх базы данных.
type publishingBackend struct {
	*fakeBackend
	bus *realtime.Bus
}

func (p *publishingBackend) InsertMessage(conversationID, senderID, text string) (models.Message, error) {
	m, err := p.fakeBackend.InsertMessage(conversationID, senderID, text)
	if err != nil {
		return models.Message{}, err
	}
	p.bus.Publish(realtime.Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT, Row: m})
	return m, nil
}

func (p *publishingBackend) MarkMessagesRead(conversationID string, messageIDs []string, at time.Time) error {
	if err := p.fakeBackend.MarkMessagesRead(conversationID, messageIDs, at); err != nil {
		return err
	}
	p.bus.Publish(realtime.Event{
		Table: constants.TABLE_MESSAGES,
		Type:  constants.EVENT_UPDATE,
		Row:   map[string]string{"conversation_id": conversationID},
	})
	return nil
}

func TestMessageEventReloadsOpenConversation(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")

	s, bus := newTestStore(t, f, "alice")
	_, err := s.OpenConversation("c1")
	require.NoError(t, err)
	require.NoError(t, s.LoadConversations())
	require.Empty(t, s.Messages())

	// Чужое сообщение появляется в хранилище, событие приходит по шине.
	m := f.addMessage("c1", "bob", "новое", time.Now().UTC(), false)
	bus.Publish(realtime.Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT, Row: m})

	require.Eventually(t, func() bool {
		msgs := s.Messages()
		return len(msgs) == 1 && msgs[0].Message == "новое"
	}, time.Second, 5*time.Millisecond)
	// Беседа открыта: сообщение сразу отмечено прочитанным.
	require.True(t, s.Messages()[0].ReadAt.Valid)
}

func TestMessageEventForOtherConversationOnlyRefreshesList(t *testing.T) {
	f := newFakeBackend("alice", "bob", "carol")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addConversation("c2", false, base, "alice", "carol")

	s, bus := newTestStore(t, f, "alice")
	_, err := s.OpenConversation("c1")
	require.NoError(t, err)
	require.NoError(t, s.LoadConversations())

	m := f.addMessage("c2", "carol", "в другой беседе", time.Now().UTC(), false)
	bus.Publish(realtime.Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT, Row: m})

	// Счетчик другой беседы вырос, открытая история не тронута.
	require.Eventually(t, func() bool {
		for _, c := range s.Conversations() {
			if c.ID == "c2" && c.UnreadCount == 1 {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, s.Messages())
	require.Equal(t, "c2", s.Conversations()[0].ID) // непрочитанное поднимает беседу наверх
}

func TestConversationEventRefreshesList(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	s, bus := newTestStore(t, f, "alice")
	require.NoError(t, s.LoadConversations())
	require.Empty(t, s.Conversations())

	// Кто-то добавил нас в новую беседу.
	f.addConversation("c1", false, time.Now().UTC(), "bob", "alice")
	bus.Publish(realtime.Event{Table: constants.TABLE_CONVERSATIONS, Type: constants.EVENT_INSERT, Row: map[string]string{"id": "c1"}})

	require.Eventually(t, func() bool {
		return len(s.Conversations()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestUserUpdateEventRefreshesDirectory(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	s, bus := newTestStore(t, f, "alice")
	require.NoError(t, s.LoadDirectory())
	require.Equal(t, constants.STATUS_AVAILABLE, s.Directory()[0].Status)

	f.mu.Lock()
	bob := f.users["bob"]
	bob.Status = constants.STATUS_AWAY
	f.users["bob"] = bob
	f.mu.Unlock()
	bus.Publish(realtime.Event{Table: constants.TABLE_USERS, Type: constants.EVENT_UPDATE, Row: map[string]string{"id": "bob", "status": constants.STATUS_AWAY}})

	require.Eventually(t, func() bool {
		dir := s.Directory()
		return len(dir) == 1 && dir[0].Status == constants.STATUS_AWAY
	}, time.Second, 5*time.Millisecond)
}

// Сквозной сценарий: Алиса пишет Бобу, Боб открывает беседу, Алиса видит
// смену индикатора "прочитано" после события по шине.
func TestReadReceiptPropagatesBetweenUsers(t *testing.T) {
	bus := realtime.NewBus()
	inner := newFakeBackend("alice", "bob")
	inner.addConversation("c1", false, time.Now().UTC().Add(-time.Hour), "alice", "bob")
	backend := &publishingBackend{fakeBackend: inner, bus: bus}

	alice, err := New(backend, BusFeed{Bus: bus}, "alice")
	require.NoError(t, err)
	t.Cleanup(alice.Close)
	bob, err := New(backend, BusFeed{Bus: bus}, "bob")
	require.NoError(t, err)
	t.Cleanup(bob.Close)

	_, err = alice.OpenConversation("c1")
	require.NoError(t, err)
	require.NoError(t, bob.LoadConversations())

	alice.Send("hello")

	// Боб видит непрочитанное после события вставки.
	require.Eventually(t, func() bool {
		convs := bob.Conversations()
		return len(convs) == 1 && convs[0].UnreadCount == 1
	}, time.Second, 5*time.Millisecond)

	// Боб открывает беседу: ровно одно сообщение, отметка проставлена.
	msgs, err := bob.OpenConversation("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hello", msgs[0].Message)
	require.Equal(t, 0, bob.Conversations()[0].UnreadCount)

	// Алиса получает событие обновления и видит двойную галочку.
	require.Eventually(t, func() bool {
		m := alice.Messages()
		return len(m) == 1 && m[0].ReadAt.Valid && !m[0].IsPending()
	}, time.Second, 5*time.Millisecond)
}
