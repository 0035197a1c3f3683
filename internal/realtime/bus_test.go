package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumenr/internal/constants"
)

func TestBusDeliversMatchingEvents(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(constants.TABLE_MESSAGES, constants.EVENT_INSERT)
	defer sub.Close()

	bus.Publish(Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT, Row: "m1"})
	bus.Publish(Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_UPDATE, Row: "m2"}) // не тот тип
	bus.Publish(Event{Table: constants.TABLE_USERS, Type: constants.EVENT_INSERT, Row: "u1"})    // не та таблица

	select {
	case ev := <-sub.C:
		require.Equal(t, "m1", ev.Row)
	case <-time.After(time.Second):
		t.Fatal("событие не доставлено")
	}
	select {
	case ev := <-sub.C:
		t.Fatalf("доставлено лишнее событие: %+v", ev)
	default:
	}
}

func TestBusAnySubscriptionSeesAllTypes(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(constants.TABLE_MESSAGES, constants.EVENT_ANY)
	defer sub.Close()

	bus.Publish(Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT})
	bus.Publish(Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_DELETE})

	require.Equal(t, constants.EVENT_INSERT, (<-sub.C).Type)
	require.Equal(t, constants.EVENT_DELETE, (<-sub.C).Type)
}

func TestBusSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(constants.TABLE_MESSAGES, constants.EVENT_ANY)
	defer sub.Close()

	// Переполняем буфер: публикация не должна блокироваться.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			bus.Publish(Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("публикация заблокировалась на медленном подписчике")
	}
	require.Len(t, sub.C, subscriberBuffer)
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(constants.TABLE_MESSAGES, constants.EVENT_ANY)
	sub.Close()
	sub.Close() // повторное закрытие безопасно

	bus.Publish(Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT})

	// Канал закрыт и пуст.
	_, open := <-sub.C
	require.False(t, open)
}

func TestEventMatches(t *testing.T) {
	ev := Event{Table: constants.TABLE_MESSAGES, Type: constants.EVENT_INSERT}
	require.True(t, ev.Matches(constants.TABLE_MESSAGES, constants.EVENT_INSERT))
	require.True(t, ev.Matches(constants.TABLE_MESSAGES, constants.EVENT_ANY))
	require.False(t, ev.Matches(constants.TABLE_MESSAGES, constants.EVENT_UPDATE))
	require.False(t, ev.Matches(constants.TABLE_USERS, constants.EVENT_ANY))
}
