package db

import (
	"database/sql"
	"fmt"
	"log"

	"lumenr/internal/models"

	"github.com/lib/pq"
)

// userColumns - список колонок users в порядке сканирования scanUser.
const userColumns = `id, email, first_name, last_name, department, status, telegram_chat_id, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Department,
		&u.Status,
		&u.TelegramChat,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// CreateUser создает нового пользователя и назначает ему роль по умолчанию.
// CreateUser creates a new user and assigns the default role.
func CreateUser(email, passwordHash, firstName, lastName, defaultRole string) (models.User, error) {
	var u models.User
	tx, err := DB.Begin()
	if err != nil {
		return u, fmt.Errorf("ошибка начала транзакции создания пользователя: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
        INSERT INTO users (email, password_hash, first_name, last_name)
        VALUES ($1, $2, $3, $4)
        RETURNING `+userColumns,
		email, passwordHash, firstName, lastName).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Department,
		&u.Status, &u.TelegramChat, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		log.Printf("CreateUser: ошибка создания пользователя %s: %v", email, err)
		return u, err
	}

	_, err = tx.Exec(`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, u.ID, defaultRole)
	if err != nil {
		log.Printf("CreateUser: ошибка назначения роли по умолчанию для %s: %v", u.ID, err)
		return u, err
	}

	if err = tx.Commit(); err != nil {
		return u, fmt.Errorf("ошибка фиксации транзакции создания пользователя: %w", err)
	}
	u.Role = defaultRole
	log.Printf("Пользователь %s (%s) успешно создан.", u.ID, email)
	return u, nil
}

// GetUserByID извлекает пользователя по его идентификатору.
func GetUserByID(userID string) (models.User, error) {
	row := DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return u, fmt.Errorf("пользователь %s не найден", userID)
		}
		log.Printf("GetUserByID: ошибка получения пользователя %s: %v", userID, err)
		return u, err
	}
	return u, nil
}

// GetUserByEmail извлекает пользователя по email вместе с хэшем пароля (для логина).
func GetUserByEmail(email string) (models.User, string, error) {
	var u models.User
	var passwordHash string
	err := DB.QueryRow(`
        SELECT `+userColumns+`, password_hash
        FROM users WHERE email = $1`, email).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Department,
		&u.Status, &u.TelegramChat, &u.CreatedAt, &u.UpdatedAt, &passwordHash)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("GetUserByEmail: ошибка получения пользователя %s: %v", email, err)
		}
		return u, "", err
	}
	return u, passwordHash, nil
}

// GetDirectory возвращает всех пользователей, кроме указанного (справочник коллег).
// GetDirectory returns every user except the given one (the colleague roster).
func GetDirectory(excludeUserID string) ([]models.User, error) {
	rows, err := DB.Query(`
        SELECT `+userColumns+`
        FROM users
        WHERE id != $1
        ORDER BY first_name, last_name`, excludeUserID)
	if err != nil {
		log.Printf("GetDirectory: ошибка получения справочника пользователей: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, errScan := scanUser(rows)
		if errScan != nil {
			log.Printf("GetDirectory: ошибка сканирования пользователя: %v", errScan)
			continue
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		log.Printf("GetDirectory: ошибка после итерации по строкам: %v", err)
		return nil, err
	}
	return users, nil
}

// GetUsersByIDs возвращает пользователей по списку идентификаторов.
func GetUsersByIDs(userIDs []string) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := DB.Query(`
        SELECT `+userColumns+`
        FROM users
        WHERE id = ANY($1)`, pq.Array(userIDs))
	if err != nil {
		log.Printf("GetUsersByIDs: ошибка получения пользователей: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, errScan := scanUser(rows)
		if errScan != nil {
			log.Printf("GetUsersByIDs: ошибка сканирования пользователя: %v", errScan)
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserStatus обновляет статус присутствия пользователя.
// Вызывается при входе/выходе и при смене статуса вручную.
func UpdateUserStatus(userID, status string) error {
	_, err := DB.Exec(`UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`, status, userID)
	if err != nil {
		log.Printf("UpdateUserStatus: ошибка обновления статуса пользователя %s на '%s': %v", userID, status, err)
		return err
	}
	return nil
}

// UpdateUserProfile обновляет профильные поля пользователя.
func UpdateUserProfile(userID, firstName, lastName string, department models.NullString) error {
	_, err := DB.Exec(`
        UPDATE users
        SET first_name = $1, last_name = $2, department = $3, updated_at = NOW()
        WHERE id = $4`, firstName, lastName, department, userID)
	if err != nil {
		log.Printf("UpdateUserProfile: ошибка обновления профиля пользователя %s: %v", userID, err)
		return err
	}
	return nil
}

// LinkTelegramChat привязывает Telegram-чат к пользователю для уведомлений.
func LinkTelegramChat(userID string, chatID int64) error {
	_, err := DB.Exec(`UPDATE users SET telegram_chat_id = $1, updated_at = NOW() WHERE id = $2`, chatID, userID)
	if err != nil {
		log.Printf("LinkTelegramChat: ошибка привязки Telegram-чата %d к пользователю %s: %v", chatID, userID, err)
		return err
	}
	log.Printf("Telegram-чат %d привязан к пользователю %s.", chatID, userID)
	return nil
}
