package realtime

import "lumenr/internal/constants"

// Event - уведомление об изменении строки одной из таблиц.
// Доставляется подписчикам шины и подключенным websocket-клиентам.
// Row намеренно не типизирован: обработчики перечитывают состояние
// из хранилища целиком, а не применяют дельты.
// Event is a row-change notification. Row is deliberately untyped:
// handlers re-fetch full state rather than apply deltas.
type Event struct {
	Table string      `json:"table"`
	Type  string      `json:"type"` // INSERT, UPDATE или DELETE
	Row   interface{} `json:"row,omitempty"`
}

// Matches проверяет, подходит ли событие под фильтр подписки.
func (e Event) Matches(table, eventType string) bool {
	if e.Table != table {
		return false
	}
	return eventType == constants.EVENT_ANY || eventType == e.Type
}
