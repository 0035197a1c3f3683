package chat

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumenr/internal/constants"
	"lumenr/internal/models"
	"lumenr/internal/realtime"
)

// fakeBackend - бекенд в памяти для тестов view-model.
type fakeBackend struct {
	mu     sync.Mutex
	users  map[string]models.User
	roles  map[string][]string
	convs  map[string]models.Conversation
	member []models.ConversationMember
	msgs   []models.Message
	nextID int

	insertErr     error
	insertGate    chan struct{} // Если не nil, InsertMessage ждет закрытия канала.
	addMembersErr error

	markReadCalls    int
	directStarts     int
	lastAddedMembers []string
}

func newFakeBackend(userIDs ...string) *fakeBackend {
	f := &fakeBackend{
		users: make(map[string]models.User),
		roles: make(map[string][]string),
		convs: make(map[string]models.Conversation),
	}
	for i, id := range userIDs {
		f.users[id] = models.User{
			ID:        id,
			Email:     id + "@lumenr.test",
			FirstName: id,
			Status:    constants.STATUS_AVAILABLE,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		f.roles[id] = []string{constants.ROLE_TEAM_MEMBER}
	}
	return f
}

// addConversation создает беседу и членства для указанных пользователей.
func (f *fakeBackend) addConversation(id string, isGroup bool, createdAt time.Time, memberIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs[id] = models.Conversation{ID: id, IsGroup: isGroup, CreatedBy: memberIDs[0], CreatedAt: createdAt, UpdatedAt: createdAt}
	for _, uid := range memberIDs {
		f.member = append(f.member, models.ConversationMember{ConversationID: id, UserID: uid})
	}
}

// addMessage добавляет сообщение напрямую, минуя конвейер отправки.
func (f *fakeBackend) addMessage(convID, senderID, text string, createdAt time.Time, read bool) models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := models.Message{
		ID:             fmt.Sprintf("srv-%d", f.nextID),
		ConversationID: convID,
		SenderID:       senderID,
		Message:        text,
		CreatedAt:      createdAt,
	}
	if read {
		m.ReadAt = models.NewNullTime(createdAt)
	}
	f.msgs = append(f.msgs, m)
	return m
}

func (f *fakeBackend) UserByID(userID string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return models.User{}, errors.New("пользователь не найден")
	}
	return u, nil
}

func (f *fakeBackend) Directory(excludeUserID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for id, u := range f.users {
		if id != excludeUserID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBackend) UsersByIDs(userIDs []string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeBackend) RolesForUsers(userIDs []string) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]string)
	for _, id := range userIDs {
		out[id] = f.roles[id]
	}
	return out, nil
}

func (f *fakeBackend) MembershipsForUser(userID string) ([]models.ConversationMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ConversationMember
	for _, m := range f.member {
		if m.UserID != userID {
			continue
		}
		conv := f.convs[m.ConversationID]
		m.Conversation = &conv
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeBackend) MembersForConversations(conversationIDs []string) ([]models.ConversationMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[string]struct{}, len(conversationIDs))
	for _, id := range conversationIDs {
		ids[id] = struct{}{}
	}
	var out []models.ConversationMember
	for _, m := range f.member {
		if _, ok := ids[m.ConversationID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) MessagesForConversations(conversationIDs []string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[string]struct{}, len(conversationIDs))
	for _, id := range conversationIDs {
		ids[id] = struct{}{}
	}
	// Новые первыми: обратный порядок вставки.
	var out []models.Message
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if _, ok := ids[f.msgs[i].ConversationID]; ok {
			out = append(out, f.msgs[i])
		}
	}
	return out, nil
}

func (f *fakeBackend) MessagesByConversation(conversationID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertMessage(conversationID, senderID, text string) (models.Message, error) {
	f.mu.Lock()
	gate := f.insertGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return models.Message{}, f.insertErr
	}
	f.nextID++
	m := models.Message{
		ID:             fmt.Sprintf("srv-%d", f.nextID),
		ConversationID: conversationID,
		SenderID:       senderID,
		Message:        text,
		CreatedAt:      time.Now().UTC(),
	}
	f.msgs = append(f.msgs, m)
	return m, nil
}

func (f *fakeBackend) MarkMessagesRead(conversationID string, messageIDs []string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls++
	ids := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = struct{}{}
	}
	for i := range f.msgs {
		if _, ok := ids[f.msgs[i].ID]; ok && !f.msgs[i].ReadAt.Valid {
			f.msgs[i].ReadAt = models.NewNullTime(at)
		}
	}
	return nil
}

func (f *fakeBackend) UpdateLastReadAt(conversationID, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.member {
		if f.member[i].ConversationID == conversationID && f.member[i].UserID == userID {
			f.member[i].LastReadAt = models.NewNullTime(at)
		}
	}
	return nil
}

func (f *fakeBackend) StartDirectConversation(creatorID, recipientID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directStarts++
	// Существующий личный диалог этой пары возвращается как есть.
	counts := make(map[string]int)
	for _, m := range f.member {
		if conv, ok := f.convs[m.ConversationID]; ok && !conv.IsGroup {
			if m.UserID == creatorID || m.UserID == recipientID {
				counts[m.ConversationID]++
			}
		}
	}
	for id, n := range counts {
		if n == 2 {
			return id, nil
		}
	}
	f.nextID++
	id := fmt.Sprintf("conv-%d", f.nextID)
	now := time.Now().UTC()
	f.convs[id] = models.Conversation{ID: id, CreatedBy: creatorID, CreatedAt: now, UpdatedAt: now}
	f.member = append(f.member,
		models.ConversationMember{ConversationID: id, UserID: creatorID},
		models.ConversationMember{ConversationID: id, UserID: recipientID},
	)
	return id, nil
}

func (f *fakeBackend) CreateConversation(name models.NullString, isGroup bool, createdBy string) (models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := time.Now().UTC()
	conv := models.Conversation{
		ID:        fmt.Sprintf("conv-%d", f.nextID),
		Name:      name,
		IsGroup:   isGroup,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.convs[conv.ID] = conv
	return conv, nil
}

func (f *fakeBackend) AddConversationMembers(conversationID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addMembersErr != nil {
		return f.addMembersErr
	}
	f.lastAddedMembers = append([]string(nil), userIDs...)
	for _, uid := range userIDs {
		f.member = append(f.member, models.ConversationMember{ConversationID: conversationID, UserID: uid})
	}
	return nil
}

// newTestStore создает view-model пользователя userID поверх фейкового
// бекенда и внутрипроцессной шины.
func newTestStore(t *testing.T, f *fakeBackend, userID string) (*Store, *realtime.Bus) {
	t.Helper()
	bus := realtime.NewBus()
	s, err := New(f, BusFeed{Bus: bus}, userID)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, bus
}

func TestNewLoadsProfileWithRole(t *testing.T) {
	f := newFakeBackend("alice")
	f.roles["alice"] = []string{constants.ROLE_TEAM_MEMBER, constants.ROLE_ADMIN}

	s, _ := newTestStore(t, f, "alice")
	require.Equal(t, "alice", s.Self().ID)
	require.Equal(t, constants.ROLE_ADMIN, s.Self().Role)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFakeBackend("alice")
	s, bus := newTestStore(t, f, "alice")
	s.Close()
	s.Close()
	// События после Close никуда не доставляются и не должны паниковать.
	bus.Publish(realtime.Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT})
	require.Empty(t, s.Conversations())
}

func TestLoadDirectoryExcludesSelf(t *testing.T) {
	f := newFakeBackend("alice", "bob", "carol")
	f.roles["bob"] = []string{constants.ROLE_PROJECT_MANAGER}
	s, _ := newTestStore(t, f, "alice")

	require.NoError(t, s.LoadDirectory())
	dir := s.Directory()
	require.Len(t, dir, 2)
	require.Equal(t, "bob", dir[0].ID)
	require.Equal(t, constants.ROLE_PROJECT_MANAGER, dir[0].Role)
	require.Equal(t, "carol", dir[1].ID)
	require.Equal(t, constants.ROLE_TEAM_MEMBER, dir[1].Role)
}
