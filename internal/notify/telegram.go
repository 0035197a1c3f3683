package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// BotClient представляет собой обертку для Telegram Bot API.
// Через него уходят уведомления пользователям, привязавшим свой чат:
// о новых сообщениях, когда получатель не в сети, и о напоминаниях задач.
// BotClient wraps the Telegram Bot API; it delivers notifications to
// users who linked their chat (offline messages, task reminders).
type BotClient struct {
	api   *tgbotapi.BotAPI
	Debug bool
}

// Глобальный экземпляр бота для пакета. Остается nil, если токен не задан:
// уведомления тогда просто не отправляются.
// Global bot instance; stays nil when no token is configured.
var Client *BotClient

// InitBot инициализирует Telegram бота.
// token - API токен вашего бота.
// debug - флаг для включения режима отладки.
func InitBot(token string, debug bool) error {
	if token == "" {
		return fmt.Errorf("токен Telegram API не предоставлен")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug

	log.Printf("Авторизован как аккаунт %s", api.Self.UserName)

	Client = &BotClient{
		api:   api,
		Debug: debug,
	}
	return nil
}

// send отправляет текст в указанный чат. Ошибки логируются, но не
// прерывают вызывающий поток: уведомление - вспомогательный канал.
func (bc *BotClient) send(chatID int64, text string) {
	if bc == nil || bc.api == nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := bc.api.Send(msg); err != nil {
		log.Printf("Ошибка отправки Telegram-уведомления в чат %d: %v", chatID, err)
	}
}

// NotifyNewMessage уведомляет получателя о новом сообщении в чате.
// Вызывается, когда получатель не подключен по websocket.
func (bc *BotClient) NotifyNewMessage(chatID int64, senderName, text string) {
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	bc.send(chatID, fmt.Sprintf("Новое сообщение от %s:\n%s", senderName, text))
}

// NotifySharedNote уведомляет получателя о заметке, которой с ним поделились.
func (bc *BotClient) NotifySharedNote(chatID int64, senderName, noteTitle string) {
	bc.send(chatID, fmt.Sprintf("%s поделился(ась) с вами заметкой: \"%s\"", senderName, noteTitle))
}

// NotifyTaskReminder отправляет напоминание о задаче.
func (bc *BotClient) NotifyTaskReminder(chatID int64, taskTitle string) {
	bc.send(chatID, fmt.Sprintf("Напоминание о задаче: \"%s\"", taskTitle))
}

// SendDocument отправляет файл (например, Excel-отчет) в указанный чат.
func (bc *BotClient) SendDocument(chatID int64, fileName string, data []byte) error {
	if bc == nil || bc.api == nil {
		return fmt.Errorf("BotClient не инициализирован")
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	if _, err := bc.api.Send(doc); err != nil {
		log.Printf("Ошибка отправки документа '%s' в чат %d: %v", fileName, chatID, err)
		return fmt.Errorf("ошибка отправки документа: %w", err)
	}
	log.Printf("Документ '%s' отправлен в чат %d.", fileName, chatID)
	return nil
}
