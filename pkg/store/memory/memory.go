package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/store"
)

// MemoryStore keeps encoded snapshots in a map. Contents are lost on
// restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s store.Snapshot) (string, error) {
	s, err := store.Prepare(s, m.now())
	if err != nil {
		return "", err
	}
	data, err := store.Encode(s)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.data[s.ID] = data
	m.mu.Unlock()
	return s.ID, nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (store.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrSnapshotNotFound, id)
	}
	return store.Decode(data)
}

func (m *MemoryStore) List(_ context.Context) ([]store.SnapshotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]store.SnapshotInfo, 0, len(m.data))
	for _, data := range m.data {
		s, err := store.Decode(data)
		if err != nil {
			return nil, err
		}
		infos = append(infos, store.InfoOf(s))
	}
	store.SortInfos(infos)
	return infos, nil
}
