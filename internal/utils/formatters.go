package utils

import (
	"fmt"
	"strings"
	"time"
)

// monthMap - русские названия месяцев в родительном падеже.
var monthMap = map[time.Month]string{
	time.January:   "января",
	time.February:  "февраля",
	time.March:     "марта",
	time.April:     "апреля",
	time.May:       "мая",
	time.June:      "июня",
	time.July:      "июля",
	time.August:    "августа",
	time.September: "сентября",
	time.October:   "октября",
	time.November:  "ноября",
	time.December:  "декабря",
}

// FormatDateForDisplay форматирует дату для отображения (например, "25 мая 2026").
func FormatDateForDisplay(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), monthMap[t.Month()], t.Year())
}

// TruncatePreview обрезает текст для превью, не разрывая руны.
func TruncatePreview(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
