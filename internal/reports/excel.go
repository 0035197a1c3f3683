package reports

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"lumenr/internal/db"
	"lumenr/internal/models"
	"lumenr/internal/utils"
)

// GenerateTasksExcel формирует Excel-отчет по задачам за период.
// Пустой userID означает отчет по всем пользователям (только для админа).
func GenerateTasksExcel(userID string, from, to time.Time) ([]byte, string, error) {
	tasks, err := db.GetTasksForPeriod(userID, from, to)
	if err != nil {
		log.Printf("Ошибка получения задач для отчета: %v", err)
		return nil, "", fmt.Errorf("ошибка получения задач для отчета: %w", err)
	}

	names, err := resolveUserNames(tasks)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheetName := "Задачи"
	index, _ := f.NewSheet(sheetName) // NewFile уже создал Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"Исполнитель", "Задача", "Описание", "Статус", "Приоритет", "Срок", "Создана"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for _, t := range tasks {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), names[t.UserID])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), t.Title)
		if t.Description.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), t.Description.String)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowIndex), t.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowIndex), t.Priority)
		if t.DueDate.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), utils.FormatDateForDisplay(t.DueDate.Time))
		} else {
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), "не указан")
		}
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowIndex), t.CreatedAt.Format("02.01.2006 15:04"))
		rowIndex++
	}

	f.SetColWidth(sheetName, "A", "B", 25)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "G", 18)
	f.SetActiveSheet(index)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		log.Printf("Ошибка записи Excel-файла отчета: %v", err)
		return nil, "", fmt.Errorf("ошибка записи Excel-файла: %w", err)
	}

	fileName := fmt.Sprintf("tasks_%s_%s.xlsx", from.Format("02.01.2006"), to.Format("02.01.2006"))
	log.Printf("Сформирован отчет '%s': %d задач.", fileName, len(tasks))
	return buf.Bytes(), fileName, nil
}

// resolveUserNames собирает отображаемые имена исполнителей задач.
func resolveUserNames(tasks []models.Task) (map[string]string, error) {
	idSet := make(map[string]struct{})
	for _, t := range tasks {
		idSet[t.UserID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	users, err := db.GetUsersByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения исполнителей для отчета: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	return names, nil
}
