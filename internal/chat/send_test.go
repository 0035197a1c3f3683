package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumenr/internal/constants"
)

func openEmptyConversation(t *testing.T, f *fakeBackend, userID string) *Store {
	t.Helper()
	s, _ := newTestStore(t, f, userID)
	_, err := s.OpenConversation("c1")
	require.NoError(t, err)
	return s
}

func TestSendOptimisticCommit(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	f.addConversation("c1", false, time.Now().UTC().Add(-time.Hour), "alice", "bob")
	gate := make(chan struct{})
	f.insertGate = gate

	s := openEmptyConversation(t, f, "alice")
	tempID := s.Send("  hello  ")
	require.NotEmpty(t, tempID)

	// Сообщение видно сразу, до ответа хранилища; поле ввода очищено.
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, tempID, msgs[0].ID)
	require.True(t, msgs[0].IsPending())
	require.Equal(t, "hello", msgs[0].Message)
	require.Equal(t, "alice", msgs[0].SenderID)
	require.NotNil(t, msgs[0].Sender)
	require.Empty(t, s.Input())

	close(gate)
	// При успехе id и время создания подменяются на месте, без перечитывания.
	require.Eventually(t, func() bool {
		m := s.Messages()
		return len(m) == 1 && !m[0].IsPending()
	}, time.Second, 5*time.Millisecond)
	m := s.Messages()[0]
	require.Equal(t, "hello", m.Message)
	require.False(t, m.ReadAt.Valid)
}

func TestSendRollbackRestoresInput(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	f.addConversation("c1", false, time.Now().UTC().Add(-time.Hour), "alice", "bob")
	gate := make(chan struct{})
	f.insertGate = gate
	f.insertErr = errors.New("запись отклонена")

	s := openEmptyConversation(t, f, "alice")
	var notices []string
	s.SetNotifier(func(text string) { notices = append(notices, text) })

	tempID := s.Send("важный текст")
	require.NotEmpty(t, tempID)
	require.Len(t, s.Messages(), 1)

	close(gate)
	// При неудаче запись убирается, текст возвращается в поле ввода.
	require.Eventually(t, func() bool {
		return len(s.Messages()) == 0
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "важный текст", s.Input())
	require.Equal(t, []string{"Не удалось отправить сообщение."}, notices)
}

func TestSendNoopOnBlankTextOrNoConversation(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	f.addConversation("c1", false, time.Now().UTC().Add(-time.Hour), "alice", "bob")
	s, _ := newTestStore(t, f, "alice")

	// Беседа не открыта.
	require.Empty(t, s.Send("hello"))

	_, err := s.OpenConversation("c1")
	require.NoError(t, err)

	// Пустой и пробельный текст.
	require.Empty(t, s.Send(""))
	require.Empty(t, s.Send("   \n\t"))
	require.Empty(t, s.Messages())
}

func TestConcurrentSendsKeepAppendOrder(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	f.addConversation("c1", false, time.Now().UTC().Add(-time.Hour), "alice", "bob")
	gate := make(chan struct{})
	f.insertGate = gate

	s := openEmptyConversation(t, f, "alice")
	first := s.Send("первое")
	second := s.Send("второе")
	require.NotEqual(t, first, second)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "первое", msgs[0].Message)
	require.Equal(t, "второе", msgs[1].Message)

	close(gate)
	// Позиция сообщения фиксируется при добавлении и не меняется конвейером.
	require.Eventually(t, func() bool {
		m := s.Messages()
		return len(m) == 2 && !m[0].IsPending() && !m[1].IsPending()
	}, time.Second, 5*time.Millisecond)
	msgs = s.Messages()
	require.Equal(t, "первое", msgs[0].Message)
	require.Equal(t, "второе", msgs[1].Message)
}

func TestPendingSurvivesFullReload(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addMessage("c1", "bob", "уже было", base.Add(time.Minute), true)
	gate := make(chan struct{})
	f.insertGate = gate

	s := openEmptyConversation(t, f, "alice")
	tempID := s.Send("еще не подтверждено")

	// Полная перезагрузка истории не теряет неподтвержденную отправку:
	// она держится по стабильному временному ключу в хвосте снимка.
	snapshot, err := s.loadMessages("c1")
	require.NoError(t, err)
	s.do(func() { s.applyMessages("c1", snapshot) })

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "уже было", msgs[0].Message)
	require.Equal(t, tempID, msgs[1].ID)

	close(gate)
	require.Eventually(t, func() bool {
		m := s.Messages()
		return len(m) == 2 && !m[1].IsPending()
	}, time.Second, 5*time.Millisecond)
}

func TestCommitAfterInterveningReloadDropsDuplicate(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	f.addConversation("c1", false, time.Now().UTC().Add(-time.Hour), "alice", "bob")
	gate := make(chan struct{})
	f.insertGate = gate

	s := openEmptyConversation(t, f, "alice")
	s.Send("hello")

	close(gate)
	// Дождаться, пока запись доедет до хранилища.
	require.Eventually(t, func() bool {
		stored, err := f.MessagesByConversation("c1")
		return err == nil && len(stored) == 1
	}, time.Second, 5*time.Millisecond)

	// Перезагрузка, принесшая серверную запись до подтверждения, не
	// приводит к дублю после подтверждения.
	require.Eventually(t, func() bool {
		m := s.Messages()
		return len(m) == 1 && !m[0].IsPending()
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "hello", s.Messages()[0].Message)
	require.False(t, strings.HasPrefix(s.Messages()[0].ID, constants.TEMP_MESSAGE_PREFIX))
}
