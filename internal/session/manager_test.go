package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"lumenr/internal/constants"
	"lumenr/internal/realtime"
)

type statusRecorder struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func (r *statusRecorder) write(userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.writes = append(r.writes, userID+":"+status)
	return nil
}

func TestConnectDisconnectLifecycle(t *testing.T) {
	rec := &statusRecorder{}
	bus := realtime.NewBus()
	sub := bus.Subscribe(constants.TABLE_USERS, constants.EVENT_UPDATE)
	defer sub.Close()

	m := NewManager(rec.write, bus)

	m.HandleConnect("alice")
	require.Equal(t, constants.STATUS_AVAILABLE, m.Status("alice"))
	m.HandleDisconnect("alice")
	require.Equal(t, constants.STATUS_AWAY, m.Status("alice"))

	require.Equal(t, []string{"alice:Available", "alice:Away"}, rec.writes)
	// Каждая смена статуса публикуется на шину.
	require.Len(t, sub.C, 2)
}

func TestRepeatedStatusNotRewritten(t *testing.T) {
	rec := &statusRecorder{}
	m := NewManager(rec.write, nil)

	m.HandleConnect("alice")
	m.HandleConnect("alice") // статус не изменился - записи нет
	require.Equal(t, []string{"alice:Available"}, rec.writes)
}

func TestSetStatusValidation(t *testing.T) {
	rec := &statusRecorder{}
	m := NewManager(rec.write, nil)

	require.NoError(t, m.SetStatus("alice", constants.STATUS_BUSY))
	require.Equal(t, constants.STATUS_BUSY, m.Status("alice"))
	require.ErrorIs(t, m.SetStatus("alice", "Gone"), ErrUnknownStatus)
}

func TestWriteErrorKeepsLocalState(t *testing.T) {
	rec := &statusRecorder{err: errors.New("база недоступна")}
	bus := realtime.NewBus()
	sub := bus.Subscribe(constants.TABLE_USERS, constants.EVENT_UPDATE)
	defer sub.Close()

	m := NewManager(rec.write, bus)
	m.HandleConnect("alice")

	// Запись не удалась: событие не публикуется.
	require.Len(t, sub.C, 0)
}
