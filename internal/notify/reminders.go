package notify

import (
	"log"
	"time"

	"lumenr/internal/db"
)

// StartTaskReminderLoop периодически проверяет задачи с включенными напоминаниями
// и отправляет владельцам Telegram-уведомления. Возвращает функцию остановки.
func StartTaskReminderLoop(interval time.Duration) func() {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				sendDueReminders(time.Now())
			}
		}
	}()

	log.Printf("Цикл напоминаний о задачах запущен (интервал %s).", interval)
	return func() {
		ticker.Stop()
		close(done)
	}
}

func sendDueReminders(now time.Time) {
	reminders, err := db.GetTasksDueForReminder(now)
	if err != nil {
		return
	}
	for _, r := range reminders {
		// Без привязанного Telegram напоминать некуда; отмечаем, чтобы не перебирать вечно.
		if r.TelegramChat.Valid {
			Client.NotifyTaskReminder(r.TelegramChat.Int64, r.Task.Title)
		}
		if err := db.MarkTaskReminderSent(r.Task.ID, now); err != nil {
			continue
		}
	}
}
