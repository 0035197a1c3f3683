package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumenr/internal/models"
	"lumenr/internal/realtime"
)

func TestLoadConversationsAssembly(t *testing.T) {
	f := newFakeBackend("alice", "bob", "carol")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addMessage("c1", "bob", "привет", base.Add(time.Minute), false)
	f.addMessage("c1", "alice", "и тебе привет", base.Add(2*time.Minute), true)
	f.addMessage("c1", "bob", "как дела?", base.Add(3*time.Minute), false)

	s, _ := newTestStore(t, f, "alice")
	require.NoError(t, s.LoadConversations())

	convs := s.Conversations()
	require.Len(t, convs, 1)
	c := convs[0]
	require.Equal(t, "c1", c.ID)
	// Превью - самое свежее сообщение с подставленным отправителем.
	require.NotNil(t, c.LastMessage)
	require.Equal(t, "как дела?", c.LastMessage.Message)
	require.NotNil(t, c.LastMessage.Sender)
	require.Equal(t, "bob", c.LastMessage.Sender.ID)
	// Непрочитанные: два чужих сообщения, своих в счетчике нет.
	require.Equal(t, 2, c.UnreadCount)
	require.Len(t, c.Members, 2)
}

func TestLoadConversationsOrdering(t *testing.T) {
	f := newFakeBackend("alice", "bob", "carol", "dave")
	base := time.Now().UTC().Add(-time.Hour)
	// c1: без непрочитанных, свежая активность.
	f.addConversation("c1", false, base, "alice", "bob")
	f.addMessage("c1", "bob", "старое", base.Add(30*time.Minute), true)
	// c2: одно непрочитанное, активность старее.
	f.addConversation("c2", false, base, "alice", "carol")
	f.addMessage("c2", "carol", "непрочитанное", base.Add(10*time.Minute), false)
	// c3: без сообщений вовсе - активность по времени создания.
	f.addConversation("c3", false, base.Add(40*time.Minute), "alice", "dave")

	s, _ := newTestStore(t, f, "alice")
	require.NoError(t, s.LoadConversations())

	convs := s.Conversations()
	require.Len(t, convs, 3)
	// Сначала по непрочитанным по убыванию, затем по активности по убыванию.
	require.Equal(t, "c2", convs[0].ID)
	require.Equal(t, "c3", convs[1].ID)
	require.Equal(t, "c1", convs[2].ID)
}

// failingBackend ломает выборку членств поверх фейка по флагу.
type failingBackend struct {
	*fakeBackend
	fail bool
}

func (f *failingBackend) MembershipsForUser(userID string) ([]models.ConversationMember, error) {
	if f.fail {
		return nil, errors.New("сеть недоступна")
	}
	return f.fakeBackend.MembershipsForUser(userID)
}

func TestLoadConversationsFailureKeepsState(t *testing.T) {
	inner := newFakeBackend("alice", "bob")
	base := time.Now().UTC().Add(-time.Hour)
	inner.addConversation("c1", false, base, "alice", "bob")
	f := &failingBackend{fakeBackend: inner}

	bus := realtime.NewBus()
	s, err := New(f, BusFeed{Bus: bus}, "alice")
	require.NoError(t, err)
	t.Cleanup(s.Close)

	var notices []string
	s.SetNotifier(func(text string) { notices = append(notices, text) })
	require.NoError(t, s.LoadConversations())
	require.Len(t, s.Conversations(), 1)

	// Ошибка выборки: прежний список нетронут, пользователь видит уведомление.
	f.fail = true
	require.Error(t, s.LoadConversations())
	require.Len(t, s.Conversations(), 1)
	require.Equal(t, []string{"Не удалось загрузить список бесед."}, notices)
}

func TestUnreadBadgeDropsToZeroOnOpen(t *testing.T) {
	f := newFakeBackend("alice", "bob")
	base := time.Now().UTC().Add(-time.Hour)
	f.addConversation("c1", false, base, "alice", "bob")
	f.addMessage("c1", "bob", "hello", base.Add(time.Minute), false)

	s, _ := newTestStore(t, f, "alice")
	require.NoError(t, s.LoadConversations())
	require.Equal(t, 1, s.Conversations()[0].UnreadCount)

	_, err := s.OpenConversation("c1")
	require.NoError(t, err)
	require.Equal(t, 0, s.Conversations()[0].UnreadCount)

	// После записи отметок и last_read_at полная пересборка дает тот же ноль.
	require.NoError(t, s.LoadConversations())
	require.Equal(t, 0, s.Conversations()[0].UnreadCount)
}
