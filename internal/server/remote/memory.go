package remote

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

type memoryObject struct {
	sha  string
	data []byte
}

// MemoryStore keeps objects in process memory. It backs local development
// (`remote.backend: memory`) and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// FailPut and FailFetch inject faults for the named objects
	FailPut   mapset.Set[string]
	FailFetch mapset.Set[string]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:   make(map[string]memoryObject),
		FailPut:   mapset.NewSet[string](),
		FailFetch: mapset.NewSet[string](),
	}
}

func (m *MemoryStore) Backend() string  { return BackendMemory }
func (m *MemoryStore) Configured() bool { return true }

func (m *MemoryStore) Exists(_ context.Context, name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[name]
	return obj.sha, ok
}

func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	if m.FailPut.Contains(name) {
		return &APIError{Op: "put", StatusCode: 500, Message: "injected failure"}
	}

	sum := sha1.Sum(fmt.Appendf(nil, "blob %d\x00%s", len(data), data))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = memoryObject{
		sha:  hex.EncodeToString(sum[:]),
		data: append([]byte(nil), data...),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[name]; !ok {
		return ErrNotFound
	}
	delete(m.objects, name)
	return nil
}

func (m *MemoryStore) List(context.Context) (mapset.Set[string], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := mapset.NewSetWithSize[string](len(m.objects))
	for name := range m.objects {
		names.Add(name)
	}
	return names, nil
}

func (m *MemoryStore) Fetch(_ context.Context, name string) ([]byte, bool) {
	if m.FailFetch.Contains(name) {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}
