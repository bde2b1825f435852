package storage

import (
	"sync"
	"time"
)

type MemoryStorage struct {
	states map[string]*State
	mutex  sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: make(map[string]*State),
	}
}

func (m *MemoryStorage) GetState(sessionId string) (*State, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if state, ok := m.states[sessionId]; ok {
		return state.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryStorage) SetState(sessionId string, state *State) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cc := state.Clone()
	cc.SessionId = sessionId
	cc.UpdatedAt = time.Now()
	m.states[sessionId] = cc
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
