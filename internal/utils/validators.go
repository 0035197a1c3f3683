package utils

import (
	"fmt"
	"regexp"
	"strings"

	"lumenr/internal/constants"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail проверяет формат адреса электронной почты.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("некорректный адрес электронной почты: '%s'", email)
	}
	return email, nil
}

// roleRank - старшинство ролей для проверки доступа.
var roleRank = map[string]int{
	constants.ROLE_TEAM_MEMBER:     1,
	constants.ROLE_PROJECT_MANAGER: 2,
	constants.ROLE_ADMIN:           3,
}

// IsValidRole сообщает, входит ли роль в допустимый набор.
func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// IsRoleOrHigher сообщает, не ниже ли роль role требуемой required.
func IsRoleOrHigher(role, required string) bool {
	return roleRank[role] >= roleRank[required]
}

// IsValidStatus сообщает, входит ли статус присутствия в допустимый набор.
func IsValidStatus(status string) bool {
	switch status {
	case constants.STATUS_AVAILABLE, constants.STATUS_AWAY, constants.STATUS_BUSY:
		return true
	}
	return false
}

// IsValidTaskStatus сообщает, допустим ли статус задачи.
func IsValidTaskStatus(status string) bool {
	switch status {
	case constants.TASK_STATUS_TODO, constants.TASK_STATUS_IN_PROGRESS, constants.TASK_STATUS_COMPLETED:
		return true
	}
	return false
}

// IsValidTaskPriority сообщает, допустим ли приоритет задачи.
func IsValidTaskPriority(priority string) bool {
	switch priority {
	case constants.TASK_PRIORITY_LOW, constants.TASK_PRIORITY_MEDIUM, constants.TASK_PRIORITY_HIGH:
		return true
	}
	return false
}
