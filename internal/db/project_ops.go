package db

import (
	"log"

	"lumenr/internal/constants"
	"lumenr/internal/models"
)

// GetActiveProjects возвращает активные проекты пользователя.
func GetActiveProjects(userID string) ([]models.Project, error) {
	rows, err := DB.Query(`
        SELECT id, user_id, name, status, created_at, updated_at
        FROM projects
        WHERE user_id = $1 AND status = $2
        ORDER BY name`, userID, constants.PROJECT_STATUS_ACTIVE)
	if err != nil {
		log.Printf("GetActiveProjects: ошибка получения проектов пользователя %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if errScan := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Status, &p.CreatedAt, &p.UpdatedAt); errScan != nil {
			log.Printf("GetActiveProjects: ошибка сканирования проекта: %v", errScan)
			continue
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject создает проект.
func CreateProject(userID, name string) (models.Project, error) {
	var p models.Project
	err := DB.QueryRow(`
        INSERT INTO projects (user_id, name)
        VALUES ($1, $2)
        RETURNING id, user_id, name, status, created_at, updated_at`,
		userID, name).Scan(&p.ID, &p.UserID, &p.Name, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		log.Printf("CreateProject: ошибка создания проекта '%s': %v", name, err)
		return p, err
	}
	return p, nil
}

// ArchiveProject переводит проект в архив.
func ArchiveProject(projectID, userID string) error {
	_, err := DB.Exec(`
        UPDATE projects SET status = $1, updated_at = NOW()
        WHERE id = $2 AND user_id = $3`,
		constants.PROJECT_STATUS_ARCHIVED, projectID, userID)
	if err != nil {
		log.Printf("ArchiveProject: ошибка архивации проекта %s: %v", projectID, err)
		return err
	}
	return nil
}
