package chat

import (
	"strings"

	"lumenr/internal/constants"
	"lumenr/internal/models"
)

// CreateDirect начинает (или находит существующий) личный диалог с
// получателем. Клиент никогда не собирает личный диалог прямой вставкой:
// уникальность пары гарантирует идемпотентная операция хранилища.
// Возвращает id беседы.
func (s *Store) CreateDirect(recipientID string) (string, error) {
	id, err := s.backend.StartDirectConversation(s.userID, recipientID)
	if err != nil {
		s.report("Не удалось начать диалог.", err)
		return "", err
	}
	_ = s.LoadConversations()
	return id, nil
}

// CreateGroup создает групповую беседу с участниками memberIDs (создатель
// добавляется автоматически, если его нет в списке). Пустое имя
// заменяется именем по умолчанию. Если вставка участников провалилась
// после создания записи беседы, осиротевшая беседа не удаляется:
// компенсирующей транзакции нет, ошибка просто показывается.
func (s *Store) CreateGroup(name string, memberIDs []string) (string, error) {
	if len(memberIDs) == 0 {
		return "", ErrNoMembers
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = constants.DEFAULT_GROUP_NAME
	}

	conv, err := s.backend.CreateConversation(models.NewNullString(name), true, s.userID)
	if err != nil {
		s.report("Не удалось создать группу.", err)
		return "", err
	}

	members := dedupe(append(memberIDs, s.userID))
	if err := s.backend.AddConversationMembers(conv.ID, members); err != nil {
		s.report("Не удалось добавить участников группы.", err)
		return conv.ID, err
	}

	_ = s.LoadConversations()
	return conv.ID, nil
}

// dedupe убирает повторы, сохраняя порядок первого вхождения.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
