package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps documents in a map. Used by tests and demo runs.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]Document
	version int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) (*Document, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	body := make([]byte, len(doc.Body))
	copy(body, doc.Body)
	return &Document{Key: key, Body: body, Version: doc.Version}, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, ifVersion int64) (int64, error) {
	key, err := CleanKey(key)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.docs[key]
	switch {
	case ifVersion == AnyVersion:
	case ifVersion == MustNotExist && exists:
		return 0, ErrConflict
	case ifVersion > 0 && (!exists || current.Version != ifVersion):
		return 0, ErrConflict
	}

	m.version++
	stored := make([]byte, len(body))
	copy(stored, body)
	m.docs[key] = Document{Key: key, Body: stored, Version: m.version}
	return m.version, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[key]; !ok {
		return ErrNotFound
	}
	delete(m.docs, key)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
