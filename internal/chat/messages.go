package chat

import (
	"fmt"
	"log"
	"time"

	"lumenr/internal/models"
)

// OpenConversation открывает беседу: загружает историю по возрастанию
// времени создания и проставляет отметки прочтения на чужих
// непрочитанных сообщениях (запись после чтения). Локальная история
// патчится в том же проходе, счетчик непрочитанных обнуляется.
// Возвращает историю с учетом еще не подтвержденных отправок.
func (s *Store) OpenConversation(conversationID string) ([]models.Message, error) {
	s.do(func() {
		if s.openID != conversationID {
			s.openID = conversationID
			s.messages = nil
			s.changed()
		}
	})

	msgs, err := s.loadMessages(conversationID)
	if err != nil {
		s.report("Не удалось загрузить сообщения.", err)
		return nil, err
	}
	s.do(func() {
		s.applyMessages(conversationID, msgs)
		for i := range s.conversations {
			if s.conversations[i].ID == conversationID {
				s.conversations[i].UnreadCount = 0
			}
		}
	})
	return s.Messages(), nil
}

// loadMessages выбирает историю беседы, подставляет отправителей с ролями
// и проставляет отметки прочтения. Если непрочитанных нет, запись в
// хранилище не выполняется вовсе.
// If nothing is unread, no write is issued at all.
func (s *Store) loadMessages(conversationID string) ([]models.Message, error) {
	msgs, err := s.backend.MessagesByConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("выборка истории беседы %s: %w", conversationID, err)
	}

	senderIDSet := make(map[string]struct{})
	for _, m := range msgs {
		senderIDSet[m.SenderID] = struct{}{}
	}
	senderIDs := make([]string, 0, len(senderIDSet))
	for id := range senderIDSet {
		senderIDs = append(senderIDs, id)
	}
	sendersByID, err := s.lookupUsers(senderIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var unreadIDs []string
	for i := range msgs {
		if sender, ok := sendersByID[msgs[i].SenderID]; ok {
			senderCopy := sender
			msgs[i].Sender = &senderCopy
		}
		if msgs[i].SenderID != s.userID && !msgs[i].ReadAt.Valid {
			unreadIDs = append(unreadIDs, msgs[i].ID)
			msgs[i].ReadAt = models.NewNullTime(now)
		}
	}

	if len(unreadIDs) > 0 {
		// Ошибка записи отметок не фатальна: следующая загрузка повторит попытку.
		if err := s.backend.MarkMessagesRead(conversationID, unreadIDs, now); err != nil {
			log.Printf("chat: ошибка отметки прочтения в беседе %s: %v", conversationID, err)
		}
		if err := s.backend.UpdateLastReadAt(conversationID, s.userID, now); err != nil {
			log.Printf("chat: ошибка обновления last_read_at в беседе %s: %v", conversationID, err)
		}
	}
	return msgs, nil
}

// applyMessages заменяет историю открытой беседы свежим снимком, сохранив
// в хвосте еще не подтвержденные оптимистичные сообщения. Снимок для уже
// закрытой беседы отбрасывается. Выполняется в диспетчере.
func (s *Store) applyMessages(conversationID string, msgs []models.Message) {
	if s.openID != conversationID {
		return // Беседа сменилась, пока шла выборка.
	}
	merged := msgs
	for _, id := range s.pendingIDs {
		p, ok := s.pending[id]
		if !ok || p.ConversationID != conversationID {
			continue
		}
		// Снимок может уже содержать серверную копию этого сообщения, если
		// перезагрузка обогнала подтверждение отправки: тогда история на
		// короткое время держит обе копии, серверный id здесь еще неизвестен.
		// commitSend уберет временную копию, как только подтверждение придет.
		merged = append(merged, p)
	}
	s.messages = merged
	s.changed()
}
