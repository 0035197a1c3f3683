package realtime

import (
	"log"
	"sync"
)

// subscriberBuffer - емкость канала подписчика. Медленный подписчик
// теряет события, а не блокирует публикацию; потеря безопасна, так как
// обработчики перечитывают состояние целиком.
// A slow subscriber drops events instead of blocking the publisher;
// safe because handlers re-fetch full state.
const subscriberBuffer = 64

// Subscription - подписка на события изменений одной таблицы.
type Subscription struct {
	C chan Event

	table     string
	eventType string
	bus       *Bus
	closeOnce sync.Once
}

// Close отписывается и закрывает канал. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.remove(s)
		close(s.C)
	})
}

// Bus - внутрипроцессная шина изменений таблиц. Публикуется каждым
// обработчиком записи; подписываются view-model чата и websocket-хаб.
// Bus is the in-process change feed: write paths publish, the chat
// view-model and the websocket hub subscribe.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
}

// NewBus создает пустую шину.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[*Subscription]struct{})}
}

// Subscribe регистрирует подписку на события таблицы table типа eventType
// (constants.EVENT_ANY - на все типы).
func (b *Bus) Subscribe(table, eventType string) *Subscription {
	sub := &Subscription{
		C:         make(chan Event, subscriberBuffer),
		table:     table,
		eventType: eventType,
		bus:       b,
	}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish рассылает событие всем подходящим подписчикам без блокировки.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		if !ev.Matches(sub.table, sub.eventType) {
			continue
		}
		select {
		case sub.C <- ev:
		default:
			log.Printf("Bus.Publish: подписчик (%s/%s) не успевает, событие отброшено.", sub.table, sub.eventType)
		}
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
}
