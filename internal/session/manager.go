package session

import (
	"log"
	"sync"

	"lumenr/internal/constants"
	"lumenr/internal/realtime"
	"lumenr/internal/utils"
)

// StatusWriter записывает статус присутствия в хранилище.
// Внедряется зависимостью, чтобы менеджер был тестируем без базы данных.
// Injected so the manager is testable without a database.
type StatusWriter func(userID, status string) error

// Manager управляет статусами присутствия пользователей.
// Первое подключение переводит пользователя в Available, последнее
// отключение - в Away; ручная установка (например, Busy) сохраняется
// до следующего события жизненного цикла сессии.
// Manager tracks presence: first connect -> Available, last disconnect
// -> Away, manual updates kept until the next session lifecycle event.
type Manager struct {
	statuses      map[string]string // Ключ: userID, Значение: последний известный статус / Key: userID, Value: last known status
	statusesMutex sync.RWMutex

	writeStatus StatusWriter
	bus         *realtime.Bus
}

// NewManager создает менеджер присутствия.
func NewManager(writeStatus StatusWriter, bus *realtime.Bus) *Manager {
	return &Manager{
		statuses:    make(map[string]string),
		writeStatus: writeStatus,
		bus:         bus,
	}
}

// HandleConnect вызывается хабом при первом подключении пользователя.
func (m *Manager) HandleConnect(userID string) {
	m.setStatus(userID, constants.STATUS_AVAILABLE)
}

// HandleDisconnect вызывается хабом при последнем отключении пользователя.
func (m *Manager) HandleDisconnect(userID string) {
	m.setStatus(userID, constants.STATUS_AWAY)
}

// SetStatus устанавливает статус по явному запросу пользователя.
func (m *Manager) SetStatus(userID, status string) error {
	if !utils.IsValidStatus(status) {
		log.Printf("Manager.SetStatus: неизвестный статус '%s' для пользователя %s.", status, userID)
		return ErrUnknownStatus
	}
	m.setStatus(userID, status)
	return nil
}

// Status возвращает последний известный статус пользователя
// (пустая строка, если менеджер его еще не видел).
func (m *Manager) Status(userID string) string {
	m.statusesMutex.RLock()
	defer m.statusesMutex.RUnlock()
	return m.statuses[userID]
}

func (m *Manager) setStatus(userID, status string) {
	m.statusesMutex.Lock()
	previous := m.statuses[userID]
	m.statuses[userID] = status
	m.statusesMutex.Unlock()

	if previous == status {
		return // Статус не изменился, запись и рассылка не нужны.
	}

	if err := m.writeStatus(userID, status); err != nil {
		log.Printf("Manager.setStatus: ошибка записи статуса '%s' пользователя %s: %v", status, userID, err)
		return
	}
	log.Printf("Статус пользователя %s изменен: '%s' -> '%s'.", userID, previous, status)

	if m.bus != nil {
		m.bus.Publish(realtime.Event{
			Table: constants.TABLE_USERS,
			Type:  constants.EVENT_UPDATE,
			Row:   map[string]string{"id": userID, "status": status},
		})
	}
}
