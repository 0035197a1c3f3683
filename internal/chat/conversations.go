package chat

import (
	"fmt"
	"sort"
	"time"

	"lumenr/internal/models"
)

// LoadConversations перечитывает список бесед пользователя целиком:
// членства с last_read_at, сообщения всех бесед (новые первыми), составы
// участников и справочные данные по всем затронутым пользователям. При
// любой ошибке выборки прежний список остается нетронутым.
func (s *Store) LoadConversations() error {
	convs, err := s.assembleConversations()
	if err != nil {
		s.report("Не удалось загрузить список бесед.", err)
		return err
	}
	s.do(func() {
		s.conversations = convs
		s.changed()
	})
	return nil
}

func (s *Store) assembleConversations() ([]models.Conversation, error) {
	memberships, err := s.backend.MembershipsForUser(s.userID)
	if err != nil {
		return nil, fmt.Errorf("выборка членств: %w", err)
	}
	if len(memberships) == 0 {
		return []models.Conversation{}, nil
	}

	convIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		convIDs = append(convIDs, m.ConversationID)
	}

	// Сообщения приходят новыми первыми: первое в группе - превью.
	msgs, err := s.backend.MessagesForConversations(convIDs)
	if err != nil {
		return nil, fmt.Errorf("выборка сообщений: %w", err)
	}
	msgsByConv := make(map[string][]models.Message)
	for _, m := range msgs {
		msgsByConv[m.ConversationID] = append(msgsByConv[m.ConversationID], m)
	}

	allMembers, err := s.backend.MembersForConversations(convIDs)
	if err != nil {
		return nil, fmt.Errorf("выборка участников: %w", err)
	}
	memberIDsByConv := make(map[string][]string)
	userIDSet := make(map[string]struct{})
	for _, m := range allMembers {
		memberIDsByConv[m.ConversationID] = append(memberIDsByConv[m.ConversationID], m.UserID)
		userIDSet[m.UserID] = struct{}{}
	}
	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	usersByID, err := s.lookupUsers(userIDs)
	if err != nil {
		return nil, err
	}

	convs := make([]models.Conversation, 0, len(memberships))
	for _, membership := range memberships {
		if membership.Conversation == nil {
			continue
		}
		conv := *membership.Conversation
		conv.LastReadAt = membership.LastReadAt

		convMsgs := msgsByConv[conv.ID]
		if len(convMsgs) > 0 {
			last := convMsgs[0]
			if sender, ok := usersByID[last.SenderID]; ok {
				last.Sender = &sender
			}
			conv.LastMessage = &last
		}
		conv.UnreadCount = countUnread(convMsgs, s.userID, membership.LastReadAt)

		for _, id := range memberIDsByConv[conv.ID] {
			if u, ok := usersByID[id]; ok {
				conv.Members = append(conv.Members, u)
			}
		}
		convs = append(convs, conv)
	}

	sortConversations(convs)
	return convs, nil
}

// lookupUsers загружает пользователей по id и подставляет им старшую роль.
func (s *Store) lookupUsers(userIDs []string) (map[string]models.User, error) {
	byID := make(map[string]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return byID, nil
	}
	users, err := s.backend.UsersByIDs(userIDs)
	if err != nil {
		return nil, fmt.Errorf("выборка пользователей: %w", err)
	}
	roles, err := s.backend.RolesForUsers(userIDs)
	if err != nil {
		return nil, fmt.Errorf("выборка ролей: %w", err)
	}
	for _, u := range users {
		u.Role = primaryRole(roles[u.ID])
		byID[u.ID] = u
	}
	return byID, nil
}

// countUnread считает сообщения других участников, созданные после
// last_read_at (или все чужие, если отметки прочтения еще нет).
func countUnread(msgs []models.Message, userID string, lastReadAt models.NullTime) int {
	count := 0
	for _, m := range msgs {
		if m.SenderID == userID {
			continue
		}
		if !lastReadAt.Valid || m.CreatedAt.After(lastReadAt.Time) {
			count++
		}
	}
	return count
}

// sortConversations упорядочивает беседы: сначала по числу непрочитанных
// по убыванию, затем по времени последней активности по убыванию.
func sortConversations(convs []models.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].UnreadCount != convs[j].UnreadCount {
			return convs[i].UnreadCount > convs[j].UnreadCount
		}
		return activityTime(convs[i]).After(activityTime(convs[j]))
	})
}

func activityTime(c models.Conversation) time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.CreatedAt
}
