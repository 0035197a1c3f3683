package chat

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"lumenr/internal/constants"
	"lumenr/internal/models"
)

// Send отправляет текст в открытую беседу оптимистично: сообщение с
// временным id сразу добавляется в хвост истории, поле ввода очищается,
// а запись в хранилище идет в фоне. При успехе id и время создания
// подменяются серверными на том же месте; при неудаче запись убирается,
// а исходный текст возвращается в поле ввода.
//
// Пустой (после обрезки пробелов) текст и отсутствие открытой беседы -
// no-op. Повторные вызовы до завершения предыдущего допустимы: каждая
// отправка живет как независимый экземпляр со своим временным id.
// Возвращает временный id ("" при no-op).
func (s *Store) Send(text string) string {
	text = strings.TrimSpace(text)
	var tempID string
	s.do(func() {
		if text == "" || s.openID == "" {
			return
		}
		tempID = constants.TEMP_MESSAGE_PREFIX + uuid.NewString()
		self := s.self
		pending := models.Message{
			ID:             tempID,
			ConversationID: s.openID,
			SenderID:       s.userID,
			Message:        text,
			CreatedAt:      time.Now().UTC(),
			Sender:         &self,
		}
		s.messages = append(s.messages, pending)
		s.pending[tempID] = pending
		s.pendingIDs = append(s.pendingIDs, tempID)
		s.input = ""
		s.changed()

		go s.finishSend(pending.ConversationID, tempID, text)
	})
	return tempID
}

func (s *Store) finishSend(conversationID, tempID, text string) {
	saved, err := s.backend.InsertMessage(conversationID, s.userID, text)
	if err != nil {
		log.Printf("chat: ошибка отправки сообщения в беседу %s: %v", conversationID, err)
		s.dispatch(func() { s.rollbackSend(tempID, text) })
		return
	}
	s.dispatch(func() { s.commitSend(tempID, saved) })
}

// commitSend подменяет временную запись серверной на той же позиции.
// Порядок сообщений при этом никогда не меняется. Выполняется в диспетчере.
func (s *Store) commitSend(tempID string, saved models.Message) {
	s.forgetPending(tempID)

	// Промежуточная полная перезагрузка могла уже принести серверную
	// запись; тогда временную достаточно убрать.
	if s.messageIndex(saved.ID) >= 0 {
		s.removeMessage(tempID)
		s.changed()
		return
	}
	if i := s.messageIndex(tempID); i >= 0 {
		s.messages[i].ID = saved.ID
		s.messages[i].CreatedAt = saved.CreatedAt
		s.messages[i].ReadAt = saved.ReadAt
	}
	s.changed()
}

// rollbackSend убирает временную запись и возвращает исходный текст в
// поле ввода. Выполняется в диспетчере.
func (s *Store) rollbackSend(tempID, text string) {
	s.forgetPending(tempID)
	s.removeMessage(tempID)
	s.input = text
	if s.notify != nil {
		s.notify("Не удалось отправить сообщение.")
	}
	s.changed()
}

func (s *Store) forgetPending(tempID string) {
	delete(s.pending, tempID)
	for i, id := range s.pendingIDs {
		if id == tempID {
			s.pendingIDs = append(s.pendingIDs[:i], s.pendingIDs[i+1:]...)
			break
		}
	}
}

func (s *Store) messageIndex(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeMessage(id string) {
	if i := s.messageIndex(id); i >= 0 {
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
	}
}
