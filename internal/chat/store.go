package chat

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"lumenr/internal/constants"
	"lumenr/internal/models"
)

// ErrNoMembers возвращается при попытке создать группу без участников.
var ErrNoMembers = errors.New("нужно выбрать хотя бы одного участника")

// Notifier показывает пользователю всплывающее уведомление об ошибке.
type Notifier func(text string)

// Store - view-model чата одного пользователя: справочник коллег, список
// бесед с превью и счетчиками непрочитанных, история открытой беседы и
// конвейер оптимистичной отправки. Все состояние - кэш удаленного
// хранилища: перечитывается целиком по событиям шины и патчится
// оптимистичными правками.
//
// Все мутации состояния выполняются в одной горутине-диспетчере, которая
// читает актуальное состояние в момент применения. Выборки из бекенда
// выполняются вне диспетчера и применяются уже готовыми.
// All mutations run on a single dispatcher goroutine that reads current
// state at apply time; backend fetches happen outside the dispatcher.
type Store struct {
	backend Backend
	feed    Feed

	userID string
	self   models.User

	actions   chan func()
	done      chan struct{}
	closeOnce sync.Once
	cancels   []func()

	notify   Notifier
	onChange func()

	// Поля ниже - только из горутины-диспетчера.
	directory     []models.User
	conversations []models.Conversation
	messages      []models.Message
	openID        string
	input         string
	pending       map[string]models.Message // Ключ: временный id / Key: temporary id
	pendingIDs    []string                  // Временные id в порядке добавления.
}

// New создает view-model для пользователя userID и подписывает ее на
// события шины. Начальные данные загружаются вызовами LoadDirectory и
// LoadConversations. Завершать работу нужно через Close.
func New(backend Backend, feed Feed, userID string) (*Store, error) {
	self, err := backend.UserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("загрузка профиля пользователя %s: %w", userID, err)
	}
	roles, err := backend.RolesForUsers([]string{userID})
	if err != nil {
		return nil, fmt.Errorf("загрузка ролей пользователя %s: %w", userID, err)
	}
	self.Role = primaryRole(roles[userID])

	s := &Store{
		backend: backend,
		feed:    feed,
		userID:  userID,
		self:    self,
		actions: make(chan func()),
		done:    make(chan struct{}),
		pending: make(map[string]models.Message),
	}
	go s.run()
	s.subscribe()
	return s, nil
}

// SetNotifier задает обработчик пользовательских уведомлений об ошибках.
func (s *Store) SetNotifier(n Notifier) {
	s.do(func() { s.notify = n })
}

// SetOnChange задает функцию, вызываемую после каждой мутации состояния.
// Вызывается из горутины-диспетчера: обработчик не должен обращаться к
// методам Store напрямую, только сигнализировать наружу.
func (s *Store) SetOnChange(fn func()) {
	s.do(func() { s.onChange = fn })
}

// Close отписывается от шины и останавливает диспетчер. Результаты
// незавершенных выборок после Close отбрасываются.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
		close(s.done)
	})
}

func (s *Store) run() {
	for {
		select {
		case fn := <-s.actions:
			fn()
		case <-s.done:
			return
		}
	}
}

// do выполняет fn в диспетчере и дожидается завершения.
// После Close ничего не делает.
func (s *Store) do(fn func()) {
	finished := make(chan struct{})
	select {
	case s.actions <- func() { fn(); close(finished) }:
		<-finished
	case <-s.done:
	}
}

// dispatch ставит fn в очередь диспетчера, не дожидаясь выполнения.
func (s *Store) dispatch(fn func()) {
	select {
	case s.actions <- fn:
	case <-s.done:
	}
}

// changed вызывается из диспетчера после мутации состояния.
func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// report логирует ошибку и показывает пользователю уведомление.
// Состояние затронутого хранилища при этом не меняется.
func (s *Store) report(text string, err error) {
	log.Printf("chat: %s: %v", text, err)
	s.do(func() {
		if s.notify != nil {
			s.notify(text)
		}
	})
}

// UserID возвращает id владельца view-model.
func (s *Store) UserID() string { return s.userID }

// Self возвращает закэшированный профиль владельца.
func (s *Store) Self() models.User { return s.self }

// Directory возвращает копию справочника коллег.
func (s *Store) Directory() []models.User {
	var out []models.User
	s.do(func() { out = append(out, s.directory...) })
	return out
}

// Conversations возвращает копию списка бесед в порядке сортировки.
func (s *Store) Conversations() []models.Conversation {
	var out []models.Conversation
	s.do(func() { out = append(out, s.conversations...) })
	return out
}

// Messages возвращает копию истории открытой беседы.
func (s *Store) Messages() []models.Message {
	var out []models.Message
	s.do(func() { out = append(out, s.messages...) })
	return out
}

// OpenID возвращает id открытой беседы (пустая строка - ничего не открыто).
func (s *Store) OpenID() string {
	var id string
	s.do(func() { id = s.openID })
	return id
}

// Input возвращает черновик поля ввода.
func (s *Store) Input() string {
	var text string
	s.do(func() { text = s.input })
	return text
}

// SetInput сохраняет черновик поля ввода.
func (s *Store) SetInput(text string) {
	s.do(func() { s.input = text })
}

// primaryRole выбирает старшую роль пользователя.
func primaryRole(roles []string) string {
	best := constants.ROLE_TEAM_MEMBER
	for _, r := range roles {
		switch r {
		case constants.ROLE_ADMIN:
			return constants.ROLE_ADMIN
		case constants.ROLE_PROJECT_MANAGER:
			best = constants.ROLE_PROJECT_MANAGER
		}
	}
	return best
}
