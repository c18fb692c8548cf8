package game

import (
	"sort"
	"sync"

	"dutch/internal/model"
)

// Registry stores live rooms by code. Implementations must make Create
// atomic with respect to Get so two rooms never share a code.
type Registry interface {
	Create(r *model.Room) error
	Get(code string) (*model.Room, bool)
	Delete(code string)
	List() []*model.Room
}

// MemoryRegistry is the in-process Registry.
type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rooms: make(map[string]*model.Room)}
}

func (m *MemoryRegistry) Create(r *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[r.Code]; exists {
		return errRoomCodeExists
	}
	m.rooms[r.Code] = r
	return nil
}

func (m *MemoryRegistry) Get(code string) (*model.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

func (m *MemoryRegistry) Delete(code string) {
	m.mu.Lock()
	delete(m.rooms, code)
	m.mu.Unlock()
}

// List returns the rooms sorted by code.
func (m *MemoryRegistry) List() []*model.Room {
	m.mu.RLock()
	list := make([]*model.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		list = append(list, r)
	}
	m.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}
