package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenConversationMarksUnreadRead(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addMessage("c1", "bob", "раз", base.Add(time.Minute), false)
	f.addMessage("c1", "alice", "два", base.Add(2*time.Minute), false)
	f.addMessage("c1", "bob", "три", base.Add(3*time.Minute), false)

	s, _ := newTestStore(t, f, "alice")
	msgs, err := s.OpenConversation("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	// Чужие сообщения получили отметку в том же проходе; свое - нет.
	require.True(t, msgs[0].ReadAt.Valid)
	require.False(t, msgs[1].ReadAt.Valid)
	require.True(t, msgs[2].ReadAt.Valid)
	require.Equal(t, 1, f.markReadCalls)

	// Отметки дошли до хранилища.
	stored, err := f.MessagesByConversation("c1")
	require.NoError(t, err)
	require.True(t, stored[0].ReadAt.Valid)
	require.True(t, stored[2].ReadAt.Valid)
}

func TestReopenWithoutNewMessagesSkipsWrite(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addMessage("c1", "bob", "hello", base.Add(time.Minute), false)

	s, _ := newTestStore(t, f, "alice")
	_, err := s.OpenConversation("c1")
	require.NoError(t, err)
	require.Equal(t, 1, f.markReadCalls)

	// Повторное открытие без новых сообщений не пишет вообще ничего,
	// даже пустой пакет.
	_, err = s.OpenConversation("c1")
	require.NoError(t, err)
	require.Equal(t, 1, f.markReadCalls)
}

func TestMessagesAnnotatedWithSenderRole(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	f.roles["bob"] = []string{"project_manager"}
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addMessage("c1", "bob", "hello", base.Add(time.Minute), true)

	s, _ := newTestStore(t, f, "alice")
	msgs, err := s.OpenConversation("c1")
	require.NoError(t, err)
	require.NotNil(t, msgs[0].Sender)
	require.Equal(t, "bob", msgs[0].Sender.ID)
	require.Equal(t, "project_manager", msgs[0].Sender.Role)
}

func TestMessageOrderStableOnEqualTimestamps(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	base := time.Now().UTC().Add(-time.Hour)
	at := base.Add(time.Minute)
	f.addConversation("c1", false, base, "alice", "bob")
	first := f.addMessage("c1", "bob", "первое", at, true)
	second := f.addMessage("c1", "bob", "второе", at, true)

	s, _ := newTestStore(t, f, "alice")
	msgs, err := s.OpenConversation("c1")
	require.NoError(t, err)
	// Одинаковое время создания: порядок выборки сохраняется.
	require.Equal(t, first.ID, msgs[0].ID)
	require.Equal(t, second.ID, msgs[1].ID)
}

func TestSwitchingConversationDiscardsStaleSnapshot(t *testing.T) {
	f := newFakeBackend("alice", "bob", "carol")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addConversation("c2", false, base, "alice", "carol")
	f.addMessage("c1", "bob", "в первой", base.Add(time.Minute), true)
	f.addMessage("c2", "carol", "во второй", base.Add(time.Minute), true)

	s, _ := newTestStore(t, f, "alice")
	_, err := s.OpenConversation("c1")
	require.NoError(t, err)
	_, err = s.OpenConversation("c2")
	require.NoError(t, err)

	// Снимок закрытой беседы не перетирает открытую.
	stale, err := s.loadMessages("c1")
	require.NoError(t, err)
	s.do(func() { s.applyMessages("c1", stale) })

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "во второй", msgs[0].Message)
}
