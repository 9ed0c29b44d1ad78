package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
)

// MemoryStore keeps JSON snapshots of conversation state in process memory.
// Used by the CLI and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

// Save stores a snapshot of the state
func (m *MemoryStore) Save(ctx context.Context, st *domain.ConversationState) error {
	if st == nil {
		return fmt.Errorf("state is nil")
	}
	if err := validateID(st.ConversationID); err != nil {
		return err
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.ConversationID] = data
	return nil
}

// Load returns a fresh copy of the stored state
func (m *MemoryStore) Load(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	if err := validateID(conversationID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.states[conversationID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, conversationID)
	}

	var st domain.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &st, nil
}

// Delete removes a conversation
func (m *MemoryStore) Delete(ctx context.Context, conversationID string) error {
	if err := validateID(conversationID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationID)
	return nil
}

// Exists reports whether a conversation is stored
func (m *MemoryStore) Exists(ctx context.Context, conversationID string) (bool, error) {
	if err := validateID(conversationID); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.states[conversationID]
	return ok, nil
}

// List returns stored conversation ids in sorted order
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
