package db

import (
	"fmt"
	"log"
	"time"

	"lumenr/internal/models"

	"github.com/lib/pq"
)

// GetMembershipsForUser извлекает все членства пользователя вместе с присоединенной беседой.
// GetMembershipsForUser retrieves the user's membership rows with the joined conversation.
func GetMembershipsForUser(userID string) ([]models.ConversationMember, error) {
	rows, err := DB.Query(`
        SELECT cm.conversation_id, cm.user_id, cm.last_read_at,
               c.id, c.name, c.is_group, c.created_by, c.created_at, c.updated_at
        FROM conversation_members cm
        JOIN conversations c ON c.id = cm.conversation_id
        WHERE cm.user_id = $1`, userID)
	if err != nil {
		log.Printf("GetMembershipsForUser: ошибка получения членств пользователя %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var memberships []models.ConversationMember
	for rows.Next() {
		var cm models.ConversationMember
		var c models.Conversation
		errScan := rows.Scan(
			&cm.ConversationID, &cm.UserID, &cm.LastReadAt,
			&c.ID, &c.Name, &c.IsGroup, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		)
		if errScan != nil {
			log.Printf("GetMembershipsForUser: ошибка сканирования членства: %v", errScan)
			continue
		}
		cm.Conversation = &c
		memberships = append(memberships, cm)
	}
	if err = rows.Err(); err != nil {
		log.Printf("GetMembershipsForUser: ошибка после итерации по строкам: %v", err)
		return nil, err
	}
	return memberships, nil
}

// GetMembersForConversations извлекает строки членства всех пользователей для указанных бесед.
func GetMembersForConversations(conversationIDs []string) ([]models.ConversationMember, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	rows, err := DB.Query(`
        SELECT conversation_id, user_id, last_read_at
        FROM conversation_members
        WHERE conversation_id = ANY($1)`, pq.Array(conversationIDs))
	if err != nil {
		log.Printf("GetMembersForConversations: ошибка получения участников: %v", err)
		return nil, err
	}
	defer rows.Close()

	var members []models.ConversationMember
	for rows.Next() {
		var cm models.ConversationMember
		if errScan := rows.Scan(&cm.ConversationID, &cm.UserID, &cm.LastReadAt); errScan != nil {
			log.Printf("GetMembersForConversations: ошибка сканирования участника: %v", errScan)
			continue
		}
		members = append(members, cm)
	}
	return members, rows.Err()
}

// StartDirectConversation - идемпотентная операция "начать или получить личную беседу".
// Если беседа между парой пользователей уже существует, возвращается ее id;
// иначе создаются беседа и оба членства в одной транзакции.
// Личные беседы создаются ТОЛЬКО здесь, поэтому инвариант
// "ровно два участника, уникальна для неупорядоченной пары" сохраняется.
// StartDirectConversation is the idempotent "start-or-get direct conversation"
// operation. Direct conversations are created ONLY here, which preserves the
// "exactly two members, unique per unordered pair" invariant.
func StartDirectConversation(creatorID, recipientID string) (string, error) {
	if creatorID == recipientID {
		return "", fmt.Errorf("нельзя начать личную беседу с самим собой")
	}

	var conversationID string
	err := DB.QueryRow(`
        SELECT cm1.conversation_id
        FROM conversation_members cm1
        JOIN conversation_members cm2 ON cm2.conversation_id = cm1.conversation_id
        JOIN conversations c ON c.id = cm1.conversation_id
        WHERE c.is_group = FALSE AND cm1.user_id = $1 AND cm2.user_id = $2
        LIMIT 1`, creatorID, recipientID).Scan(&conversationID)
	if err == nil {
		return conversationID, nil
	}

	tx, err := DB.Begin()
	if err != nil {
		return "", fmt.Errorf("ошибка начала транзакции создания беседы: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
        INSERT INTO conversations (name, is_group, created_by)
        VALUES (NULL, FALSE, $1)
        RETURNING id`, creatorID).Scan(&conversationID)
	if err != nil {
		log.Printf("StartDirectConversation: ошибка создания беседы (%s, %s): %v", creatorID, recipientID, err)
		return "", err
	}

	_, err = tx.Exec(`
        INSERT INTO conversation_members (conversation_id, user_id)
        VALUES ($1, $2), ($1, $3)`, conversationID, creatorID, recipientID)
	if err != nil {
		log.Printf("StartDirectConversation: ошибка создания членств для беседы %s: %v", conversationID, err)
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("ошибка фиксации транзакции создания беседы: %w", err)
	}
	log.Printf("Личная беседа %s создана для пары (%s, %s).", conversationID, creatorID, recipientID)
	return conversationID, nil
}

// CreateConversation создает строку беседы (используется для групповых чатов).
func CreateConversation(name models.NullString, isGroup bool, createdBy string) (models.Conversation, error) {
	var c models.Conversation
	err := DB.QueryRow(`
        INSERT INTO conversations (name, is_group, created_by)
        VALUES ($1, $2, $3)
        RETURNING id, name, is_group, created_by, created_at, updated_at`,
		name, isGroup, createdBy).Scan(
		&c.ID, &c.Name, &c.IsGroup, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		log.Printf("CreateConversation: ошибка создания беседы: %v", err)
		return c, err
	}
	log.Printf("Беседа %s (is_group=%v) успешно создана.", c.ID, isGroup)
	return c, nil
}

// AddConversationMembers добавляет участников беседы одной пакетной вставкой.
// Если вставка падает после успешного создания беседы, осиротевшая строка
// беседы НЕ удаляется - компенсация не выполняется намеренно.
// Membership rows are inserted in a single batch; an orphaned conversation
// row after a failed batch is intentionally left in place.
func AddConversationMembers(conversationID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := DB.Exec(`
        INSERT INTO conversation_members (conversation_id, user_id)
        SELECT $1, unnest($2::uuid[])
        ON CONFLICT (conversation_id, user_id) DO NOTHING`,
		conversationID, pq.Array(userIDs))
	if err != nil {
		log.Printf("AddConversationMembers: ошибка добавления участников в беседу %s: %v", conversationID, err)
		return err
	}
	return nil
}

// UpdateLastReadAt отмечает беседу прочитанной для пользователя на указанный момент.
func UpdateLastReadAt(conversationID, userID string, at time.Time) error {
	_, err := DB.Exec(`
        UPDATE conversation_members
        SET last_read_at = $1
        WHERE conversation_id = $2 AND user_id = $3`, at, conversationID, userID)
	if err != nil {
		log.Printf("UpdateLastReadAt: ошибка обновления last_read_at для беседы %s, пользователя %s: %v", conversationID, userID, err)
		return err
	}
	return nil
}

// GetConversationMemberIDs возвращает идентификаторы участников беседы.
func GetConversationMemberIDs(conversationID string) ([]string, error) {
	rows, err := DB.Query(`
        SELECT user_id FROM conversation_members
        WHERE conversation_id = $1`, conversationID)
	if err != nil {
		log.Printf("GetConversationMemberIDs: ошибка получения участников беседы %s: %v", conversationID, err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if errScan := rows.Scan(&id); errScan != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsConversationMember проверяет, состоит ли пользователь в беседе (контроль доступа).
func IsConversationMember(conversationID, userID string) (bool, error) {
	var exists bool
	err := DB.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM conversation_members
            WHERE conversation_id = $1 AND user_id = $2
        )`, conversationID, userID).Scan(&exists)
	if err != nil {
		log.Printf("IsConversationMember: ошибка проверки членства (%s, %s): %v", conversationID, userID, err)
		return false, err
	}
	return exists, nil
}
