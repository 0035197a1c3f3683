package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

// Client - одно websocket-подключение пользователя.
// У пользователя может быть несколько подключений (вкладок).
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	closeOnce sync.Once
}

// Hub управляет websocket-подключениями и пересылает события изменений
// участникам затронутых бесед. Колбэки onConnect/onDisconnect извещают
// менеджер сессий о первом подключении и последнем отключении пользователя.
// Hub manages websocket connections and forwards change events.
// onConnect/onDisconnect notify the session manager about the first
// connection and the last disconnection of a user.
type Hub struct {
	mu      sync.Mutex
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	onConnect    func(userID string)
	onDisconnect func(userID string)
}

// NewHub создает хаб. Колбэки могут быть nil.
func NewHub(onConnect, onDisconnect func(userID string)) *Hub {
	return &Hub{
		clients:      make(map[string][]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		onConnect:    onConnect,
		onDisconnect: onDisconnect,
	}
}

// Run обрабатывает регистрацию и отключение клиентов. Запускается одной горутиной.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			first := len(h.clients[client.UserID]) == 0
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			log.Printf("Hub: клиент пользователя %s подключен.", client.UserID)
			if first && h.onConnect != nil {
				h.onConnect(client.UserID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			conns := h.clients[client.UserID]
			for i, c := range conns {
				if c == client {
					h.clients[client.UserID] = append(conns[:i], conns[i+1:]...)
					break
				}
			}
			last := len(h.clients[client.UserID]) == 0
			if last {
				delete(h.clients, client.UserID)
			}
			h.mu.Unlock()
			client.close()
			log.Printf("Hub: клиент пользователя %s отключен.", client.UserID)
			if last && h.onDisconnect != nil {
				h.onDisconnect(client.UserID)
			}
		}
	}
}

// Add регистрирует подключение и запускает его циклы чтения и записи.
func (h *Hub) Add(userID string, conn *websocket.Conn) *Client {
	client := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 64),
	}
	h.register <- client
	go client.writeLoop()
	go client.readLoop(h)
	return client
}

// SendToUsers доставляет событие всем подключениям указанных пользователей.
// Переполненный канал клиента пропускается (клиент перечитает состояние сам).
func (h *Hub) SendToUsers(userIDs []string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Hub.SendToUsers: ошибка сериализации события: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, uid := range userIDs {
		for _, client := range h.clients[uid] {
			select {
			case client.Send <- payload:
			default:
				log.Printf("Hub.SendToUsers: канал клиента %s переполнен, событие пропущено.", uid)
			}
		}
	}
}

// Broadcast доставляет событие всем подключенным пользователям
// (используется для обновлений статусов присутствия).
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Hub.Broadcast: ошибка сериализации события: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for uid, conns := range h.clients {
		for _, client := range conns {
			select {
			case client.Send <- payload:
			default:
				log.Printf("Hub.Broadcast: канал клиента %s переполнен, событие пропущено.", uid)
			}
		}
	}
}

// IsOnline сообщает, есть ли у пользователя хоть одно живое подключение.
// Используется для решения об отправке Telegram-уведомления.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID]) > 0
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				return
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop(h *Hub) {
	defer func() {
		h.unregister <- c
	}()
	for {
		// Входящие сообщения не обрабатываются: канал служит только для доставки
		// событий сервером. Чтение нужно, чтобы замечать закрытие соединения.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.Send)
		c.Conn.Close()
	})
}
