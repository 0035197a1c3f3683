package db

import (
	"log"
	"time"

	"lumenr/internal/models"

	"github.com/lib/pq"
)

const messageColumns = `id, conversation_id, sender_id, message, created_at, read_at, file_name, file_url, file_size`

func scanMessage(row interface{ Scan(...interface{}) error }) (models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.Message,
		&m.CreatedAt,
		&m.ReadAt,
		&m.FileName,
		&m.FileURL,
		&m.FileSize,
	)
	return m, err
}

// GetMessagesForConversations извлекает все сообщения указанных бесед, новые первыми.
// Используется сборкой списка бесед: первое сообщение набора - это last_message.
// Newest first; the assembly takes the first per-conversation entry as last_message.
func GetMessagesForConversations(conversationIDs []string) ([]models.Message, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	rows, err := DB.Query(`
        SELECT `+messageColumns+`
        FROM messages
        WHERE conversation_id = ANY($1)
        ORDER BY created_at DESC`, pq.Array(conversationIDs))
	if err != nil {
		log.Printf("GetMessagesForConversations: ошибка получения сообщений: %v", err)
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, errScan := scanMessage(rows)
		if errScan != nil {
			log.Printf("GetMessagesForConversations: ошибка сканирования сообщения: %v", errScan)
			continue
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		log.Printf("GetMessagesForConversations: ошибка после итерации по строкам: %v", err)
		return nil, err
	}
	return messages, nil
}

// GetMessagesByConversationID извлекает историю беседы по возрастанию времени создания.
func GetMessagesByConversationID(conversationID string) ([]models.Message, error) {
	rows, err := DB.Query(`
        SELECT `+messageColumns+`
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at ASC`, conversationID)
	if err != nil {
		log.Printf("GetMessagesByConversationID: ошибка получения сообщений беседы %s: %v", conversationID, err)
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, errScan := scanMessage(rows)
		if errScan != nil {
			log.Printf("GetMessagesByConversationID: ошибка сканирования сообщения беседы %s: %v", conversationID, errScan)
			continue
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		log.Printf("GetMessagesByConversationID: ошибка после итерации по строкам беседы %s: %v", conversationID, err)
		return nil, err
	}
	return messages, nil
}

// InsertMessage добавляет сообщение и возвращает созданную строку
// (id и created_at назначаются сервером). Попутно обновляется updated_at беседы.
// Returns the stored row with the server-assigned id and created_at.
func InsertMessage(conversationID, senderID, text string, fileName, fileURL models.NullString, fileSize models.NullInt64) (models.Message, error) {
	var m models.Message
	err := DB.QueryRow(`
        INSERT INTO messages (conversation_id, sender_id, message, file_name, file_url, file_size)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+messageColumns,
		conversationID, senderID, text, fileName, fileURL, fileSize).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Message, &m.CreatedAt,
		&m.ReadAt, &m.FileName, &m.FileURL, &m.FileSize)
	if err != nil {
		log.Printf("InsertMessage: ошибка добавления сообщения в беседу %s: %v", conversationID, err)
		return m, err
	}

	_, err = DB.Exec(`UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID)
	if err != nil {
		// Не считаем фатальным: сообщение уже сохранено.
		log.Printf("InsertMessage: ошибка обновления updated_at беседы %s: %v", conversationID, err)
	}

	log.Printf("Сообщение %s в беседе %s успешно добавлено.", m.ID, conversationID)
	return m, nil
}

// MarkMessagesRead проставляет read_at указанным сообщениям беседы.
// Переход выполняется только из NULL: уже прочитанные сообщения не трогаются.
// Sets read_at for the given messages; only the NULL -> instant transition is applied.
func MarkMessagesRead(conversationID string, messageIDs []string, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := DB.Exec(`
        UPDATE messages
        SET read_at = $1
        WHERE conversation_id = $2 AND id = ANY($3) AND read_at IS NULL`,
		at, conversationID, pq.Array(messageIDs))
	if err != nil {
		log.Printf("MarkMessagesRead: ошибка отметки сообщений прочитанными в беседе %s: %v", conversationID, err)
		return err
	}
	return nil
}
