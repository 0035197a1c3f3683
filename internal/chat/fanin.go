package chat

import (
	"lumenr/internal/constants"
	"lumenr/internal/models"
	"lumenr/internal/realtime"
)

// subscribe вешает три независимые подписки на время жизни view-model:
// сообщения, беседы и статусы пользователей. Порядок и дедупликация
// событий не гарантируются: каждый обработчик перечитывает состояние
// целиком, а не применяет дельты, поэтому повторы и перестановки
// безопасны. Подписки снимаются в Close.
func (s *Store) subscribe() {
	s.watch(constants.TABLE_MESSAGES, constants.EVENT_ANY, s.handleMessageEvent)
	s.watch(constants.TABLE_CONVERSATIONS, constants.EVENT_ANY, s.handleConversationEvent)
	s.watch(constants.TABLE_USERS, constants.EVENT_UPDATE, s.handleUserEvent)
}

func (s *Store) watch(table, eventType string, handler func(realtime.Event)) {
	ch, cancel := s.feed.Subscribe(table, eventType)
	s.cancels = append(s.cancels, cancel)
	go func() {
		for ev := range ch {
			handler(ev)
		}
	}()
}

// handleMessageEvent: вставка или изменение сообщения в открытой беседе
// перечитывает ее историю; любая вставка/изменение перечитывает список
// бесед (превью и счетчики). Открытая беседа определяется по состоянию
// на момент события, а не по замыканию.
// The open conversation is read at event time, not captured in a closure.
func (s *Store) handleMessageEvent(ev realtime.Event) {
	if ev.Type == constants.EVENT_DELETE {
		return
	}
	open := s.OpenID()
	if convID := eventConversationID(ev); convID != "" && convID == open {
		s.reloadOpen(convID)
	}
	_ = s.LoadConversations()
}

func (s *Store) handleConversationEvent(_ realtime.Event) {
	_ = s.LoadConversations()
}

func (s *Store) handleUserEvent(_ realtime.Event) {
	_ = s.LoadDirectory()
	_ = s.LoadConversations()
}

// reloadOpen перечитывает историю открытой беседы (с отметками прочтения:
// раз беседа открыта, пользователь видит новые сообщения сразу).
func (s *Store) reloadOpen(conversationID string) {
	msgs, err := s.loadMessages(conversationID)
	if err != nil {
		s.report("Не удалось обновить сообщения.", err)
		return
	}
	s.dispatch(func() { s.applyMessages(conversationID, msgs) })
}

// eventConversationID достает id беседы из строки события.
func eventConversationID(ev realtime.Event) string {
	switch row := ev.Row.(type) {
	case models.Message:
		return row.ConversationID
	case *models.Message:
		return row.ConversationID
	case map[string]string:
		return row["conversation_id"]
	case map[string]interface{}:
		if id, ok := row["conversation_id"].(string); ok {
			return id
		}
	}
	return ""
}
