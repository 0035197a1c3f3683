package chat

import (
	"log"
	"sync"
)

// Registry держит по одной view-model чата на подключенного пользователя.
// Создается по требованию при первом обращении и закрывается при
// последнем отключении пользователя.
type Registry struct {
	backend Backend
	feed    Feed

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry создает реестр view-model поверх общего бекенда и шины.
func NewRegistry(backend Backend, feed Feed) *Registry {
	return &Registry{
		backend: backend,
		feed:    feed,
		stores:  make(map[string]*Store),
	}
}

// Get возвращает view-model пользователя, создавая ее при первом обращении.
func (r *Registry) Get(userID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[userID]; ok {
		return s, nil
	}
	s, err := New(r.backend, r.feed, userID)
	if err != nil {
		return nil, err
	}
	if err := s.LoadDirectory(); err != nil {
		log.Printf("Registry.Get: начальная загрузка справочника для %s: %v", userID, err)
	}
	if err := s.LoadConversations(); err != nil {
		log.Printf("Registry.Get: начальная загрузка бесед для %s: %v", userID, err)
	}
	r.stores[userID] = s
	return s, nil
}

// Release закрывает и забывает view-model пользователя.
// Вызывается при последнем отключении его websocket-сессии.
func (r *Registry) Release(userID string) {
	r.mu.Lock()
	s, ok := r.stores[userID]
	delete(r.stores, userID)
	r.mu.Unlock()
	if ok {
		s.Close()
		log.Printf("View-model чата пользователя %s закрыта.", userID)
	}
}

// CloseAll закрывает все view-model. Вызывается при остановке сервера.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.stores = make(map[string]*Store)
	r.mu.Unlock()
	for _, s := range stores {
		s.Close()
	}
}
