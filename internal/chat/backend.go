package chat

import (
	"time"

	"lumenr/internal/constants"
	"lumenr/internal/db"
	"lumenr/internal/models"
	"lumenr/internal/realtime"
)

// Backend - операции удаленного хранилища, нужные view-model чата.
// Внедряется зависимостью (а не глобальным клиентом), чтобы ядро
// тестировалось в изоляции от базы данных.
// Injected as a dependency rather than a process-wide client so the
// core is testable in isolation.
type Backend interface {
	UserByID(userID string) (models.User, error)
	Directory(excludeUserID string) ([]models.User, error)
	UsersByIDs(userIDs []string) ([]models.User, error)
	RolesForUsers(userIDs []string) (map[string][]string, error)

	MembershipsForUser(userID string) ([]models.ConversationMember, error)
	MembersForConversations(conversationIDs []string) ([]models.ConversationMember, error)
	MessagesForConversations(conversationIDs []string) ([]models.Message, error)
	MessagesByConversation(conversationID string) ([]models.Message, error)

	InsertMessage(conversationID, senderID, text string) (models.Message, error)
	MarkMessagesRead(conversationID string, messageIDs []string, at time.Time) error
	UpdateLastReadAt(conversationID, userID string, at time.Time) error

	StartDirectConversation(creatorID, recipientID string) (string, error)
	CreateConversation(name models.NullString, isGroup bool, createdBy string) (models.Conversation, error)
	AddConversationMembers(conversationID string, userIDs []string) error
}

// Feed - источник событий изменений таблиц. Subscribe возвращает канал
// событий и функцию отписки; после отписки канал закрывается.
type Feed interface {
	Subscribe(table, eventType string) (<-chan realtime.Event, func())
}

// DBBackend - реализация Backend поверх пакета db. Записи публикуют
// соответствующие события на шину, чтобы view-model других пользователей
// перечитали свое состояние.
// Writes publish change events on the bus so other users' view-models
// re-fetch their state.
type DBBackend struct {
	bus *realtime.Bus
}

// NewDBBackend создает бекенд поверх глобального подключения к БД.
func NewDBBackend(bus *realtime.Bus) *DBBackend {
	return &DBBackend{bus: bus}
}

func (b *DBBackend) publish(table, eventType string, row interface{}) {
	if b.bus != nil {
		b.bus.Publish(realtime.Event{Table: table, Type: eventType, Row: row})
	}
}

func (b *DBBackend) UserByID(userID string) (models.User, error) {
	return db.GetUserByID(userID)
}

func (b *DBBackend) Directory(excludeUserID string) ([]models.User, error) {
	return db.GetDirectory(excludeUserID)
}

func (b *DBBackend) UsersByIDs(userIDs []string) ([]models.User, error) {
	return db.GetUsersByIDs(userIDs)
}

func (b *DBBackend) RolesForUsers(userIDs []string) (map[string][]string, error) {
	return db.GetRolesForUsers(userIDs)
}

func (b *DBBackend) MembershipsForUser(userID string) ([]models.ConversationMember, error) {
	return db.GetMembershipsForUser(userID)
}

func (b *DBBackend) MembersForConversations(conversationIDs []string) ([]models.ConversationMember, error) {
	return db.GetMembersForConversations(conversationIDs)
}

func (b *DBBackend) MessagesForConversations(conversationIDs []string) ([]models.Message, error) {
	return db.GetMessagesForConversations(conversationIDs)
}

func (b *DBBackend) MessagesByConversation(conversationID string) ([]models.Message, error) {
	return db.GetMessagesByConversationID(conversationID)
}

func (b *DBBackend) InsertMessage(conversationID, senderID, text string) (models.Message, error) {
	m, err := db.InsertMessage(conversationID, senderID, text, models.NullString{}, models.NullString{}, models.NullInt64{})
	if err != nil {
		return models.Message{}, err
	}
	b.publish(constants.TABLE_MESSAGES, constants.EVENT_INSERT, m)
	return m, nil
}

func (b *DBBackend) MarkMessagesRead(conversationID string, messageIDs []string, at time.Time) error {
	if err := db.MarkMessagesRead(conversationID, messageIDs, at); err != nil {
		return err
	}
	// Отправителю важно увидеть смену индикатора "прочитано".
	b.publish(constants.TABLE_MESSAGES, constants.EVENT_UPDATE, map[string]string{"conversation_id": conversationID})
	return nil
}

func (b *DBBackend) UpdateLastReadAt(conversationID, userID string, at time.Time) error {
	return db.UpdateLastReadAt(conversationID, userID, at)
}

func (b *DBBackend) StartDirectConversation(creatorID, recipientID string) (string, error) {
	id, err := db.StartDirectConversation(creatorID, recipientID)
	if err != nil {
		return "", err
	}
	b.publish(constants.TABLE_CONVERSATIONS, constants.EVENT_INSERT, map[string]string{"id": id})
	return id, nil
}

func (b *DBBackend) CreateConversation(name models.NullString, isGroup bool, createdBy string) (models.Conversation, error) {
	conv, err := db.CreateConversation(name, isGroup, createdBy)
	if err != nil {
		return models.Conversation{}, err
	}
	b.publish(constants.TABLE_CONVERSATIONS, constants.EVENT_INSERT, conv)
	return conv, nil
}

func (b *DBBackend) AddConversationMembers(conversationID string, userIDs []string) error {
	if err := db.AddConversationMembers(conversationID, userIDs); err != nil {
		return err
	}
	b.publish(constants.TABLE_CONVERSATIONS, constants.EVENT_UPDATE, map[string]string{"id": conversationID})
	return nil
}

// BusFeed адаптирует realtime.Bus к интерфейсу Feed.
type BusFeed struct {
	Bus *realtime.Bus
}

func (f BusFeed) Subscribe(table, eventType string) (<-chan realtime.Event, func()) {
	sub := f.Bus.Subscribe(table, eventType)
	return sub.C, sub.Close
}
