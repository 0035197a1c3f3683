package db

import (
	"database/sql"
	"log"

	"lumenr/internal/constants"
	"lumenr/internal/models"

	"github.com/lib/pq"
)

// GetRolesForUsers возвращает карту "пользователь -> роли" для списка пользователей.
// GetRolesForUsers returns a user -> roles map for the given user ids.
func GetRolesForUsers(userIDs []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(userIDs) == 0 {
		return result, nil
	}
	rows, err := DB.Query(`
        SELECT user_id, role
        FROM user_roles
        WHERE user_id = ANY($1)
        ORDER BY created_at`, pq.Array(userIDs))
	if err != nil {
		log.Printf("GetRolesForUsers: ошибка получения ролей: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID, role string
		if errScan := rows.Scan(&userID, &role); errScan != nil {
			log.Printf("GetRolesForUsers: ошибка сканирования роли: %v", errScan)
			continue
		}
		result[userID] = append(result[userID], role)
	}
	return result, rows.Err()
}

// GetPrimaryRole возвращает первую назначенную роль пользователя
// или роль по умолчанию, если назначений нет.
func GetPrimaryRole(userID string) string {
	var role string
	err := DB.QueryRow(`
        SELECT role FROM user_roles
        WHERE user_id = $1
        ORDER BY created_at
        LIMIT 1`, userID).Scan(&role)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("GetPrimaryRole: ошибка получения роли пользователя %s: %v", userID, err)
		}
		return constants.ROLE_TEAM_MEMBER
	}
	return role
}

// GetAllUserRoles возвращает все назначения ролей (для экрана управления ролями).
func GetAllUserRoles() ([]models.UserRole, error) {
	rows, err := DB.Query(`SELECT user_id, role, COALESCE(created_by::text, ''), created_at FROM user_roles ORDER BY created_at`)
	if err != nil {
		log.Printf("GetAllUserRoles: ошибка получения назначений ролей: %v", err)
		return nil, err
	}
	defer rows.Close()

	var assignments []models.UserRole
	for rows.Next() {
		var ur models.UserRole
		if errScan := rows.Scan(&ur.UserID, &ur.Role, &ur.CreatedBy, &ur.CreatedAt); errScan != nil {
			log.Printf("GetAllUserRoles: ошибка сканирования назначения: %v", errScan)
			continue
		}
		assignments = append(assignments, ur)
	}
	return assignments, rows.Err()
}

// AddUserRole добавляет роль пользователю. Повторное назначение той же роли
// нарушает уникальный индекс; вызывающая сторона различает эту ошибку по коду 23505.
func AddUserRole(userID, role, createdBy string) error {
	_, err := DB.Exec(`
        INSERT INTO user_roles (user_id, role, created_by)
        VALUES ($1, $2, $3)`, userID, role, createdBy)
	if err != nil {
		log.Printf("AddUserRole: ошибка назначения роли '%s' пользователю %s: %v", role, userID, err)
		return err
	}
	log.Printf("Роль '%s' назначена пользователю %s.", role, userID)
	return nil
}

// RemoveUserRole снимает роль с пользователя.
func RemoveUserRole(userID, role string) error {
	_, err := DB.Exec(`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, role)
	if err != nil {
		log.Printf("RemoveUserRole: ошибка снятия роли '%s' с пользователя %s: %v", role, userID, err)
		return err
	}
	return nil
}

// IsUniqueViolation сообщает, является ли ошибка нарушением уникального ограничения.
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
