package realtime

import (
	"log"

	"lumenr/internal/constants"
	"lumenr/internal/models"
)

// Forwarder доставляет события шины подключенным websocket-клиентам.
// События сообщений и бесед уходят только участникам затронутой беседы,
// изменения пользователей (статусы присутствия) - всем подключенным.
type Forwarder struct {
	bus *Bus
	hub *Hub

	// memberIDs возвращает участников беседы; внедряется, чтобы пакет
	// не зависел от слоя хранилища.
	memberIDs func(conversationID string) ([]string, error)

	subs []*Subscription
}

// NewForwarder создает форвардер. Запускается методом Start, останавливается Stop.
func NewForwarder(bus *Bus, hub *Hub, memberIDs func(conversationID string) ([]string, error)) *Forwarder {
	return &Forwarder{bus: bus, hub: hub, memberIDs: memberIDs}
}

// Start подписывается на шину и начинает пересылку.
func (f *Forwarder) Start() {
	f.watch(constants.TABLE_MESSAGES, f.forwardToMembers)
	f.watch(constants.TABLE_CONVERSATIONS, f.forwardToMembers)
	f.watch(constants.TABLE_USERS, func(ev Event) { f.hub.Broadcast(ev) })
}

// Stop снимает подписки.
func (f *Forwarder) Stop() {
	for _, sub := range f.subs {
		sub.Close()
	}
}

func (f *Forwarder) watch(table string, handler func(Event)) {
	sub := f.bus.Subscribe(table, constants.EVENT_ANY)
	f.subs = append(f.subs, sub)
	go func() {
		for ev := range sub.C {
			handler(ev)
		}
	}()
}

func (f *Forwarder) forwardToMembers(ev Event) {
	convID := conversationIDOf(ev)
	if convID == "" {
		// Не удалось определить беседу - рассылаем всем, обработчики
		// сами перечитают только свое.
		f.hub.Broadcast(ev)
		return
	}
	ids, err := f.memberIDs(convID)
	if err != nil {
		log.Printf("Forwarder: ошибка получения участников беседы %s: %v", convID, err)
		return
	}
	f.hub.SendToUsers(ids, ev)
}

// conversationIDOf достает id беседы из строки события.
func conversationIDOf(ev Event) string {
	switch row := ev.Row.(type) {
	case models.Message:
		return row.ConversationID
	case *models.Message:
		return row.ConversationID
	case models.Conversation:
		return row.ID
	case *models.Conversation:
		return row.ID
	case map[string]string:
		if ev.Table == constants.TABLE_CONVERSATIONS {
			return row["id"]
		}
		return row["conversation_id"]
	}
	return ""
}
