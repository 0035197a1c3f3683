package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"lumenr/internal/constants"
)

func TestCreateDirectIsIdempotent(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	s, _ := newTestStore(t, f, "alice")

	first, err := s.CreateDirect("bob")
	require.NoError(t, err)
	second, err := s.CreateDirect("bob")
	require.NoError(t, err)
	// Повторный вызов для той же пары возвращает ту же беседу.
	require.Equal(t, first, second)

	convs := s.Conversations()
	require.Len(t, convs, 1)
	require.False(t, convs[0].IsGroup)
	require.Len(t, convs[0].Members, 2)
}

func TestCreateGroupAddsCreatorAndDedupes(t *testing.T) {
	f := newFakeBackend("alice", "bob", "carol")
	s, _ := newTestStore(t, f, "alice")

	id, err := s.CreateGroup("Team", []string{"bob", "carol", "bob", "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.ElementsMatch(t, []string{"alice", "bob", "carol"}, f.lastAddedMembers)

	convs := s.Conversations()
	require.Len(t, convs, 1)
	require.True(t, convs[0].IsGroup)
	require.Equal(t, "Team", convs[0].Name.String)
	require.Len(t, convs[0].Members, 3)
}

func TestCreateGroupBlankNameGetsPlaceholder(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	s, _ := newTestStore(t, f, "alice")

	id, err := s.CreateGroup("   ", []string{"bob"})
	require.NoError(t, err)

	f.mu.Lock()
	conv := f.convs[id]
	f.mu.Unlock()
	require.Equal(t, constants.DEFAULT_GROUP_NAME, conv.Name.String)
}

func TestCreateGroupRequiresMembers(t *testing.T) {
	f := newFakeBackend("alice")
	s, _ := newTestStore(t, f, "alice")

	_, err := s.CreateGroup("Team", nil)
	require.ErrorIs(t, err, ErrNoMembers)
}

func TestCreateGroupOrphanNotCompensated(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	f.addMembersErr = errors.New("вставка участников отклонена")
	s, _ := newTestStore(t, f, "alice")
	var notices []string
	s.SetNotifier(func(text string) { notices = append(notices, text) })

	id, err := s.CreateGroup("Team", []string{"bob"})
	require.Error(t, err)
	require.NotEmpty(t, id)

	// Осиротевшая беседа остается в хранилище: компенсирующей транзакции нет.
	f.mu.Lock()
	_, exists := f.convs[id]
	f.mu.Unlock()
	require.True(t, exists)
	require.Equal(t, []string{"Не удалось добавить участников группы."}, notices)
}
