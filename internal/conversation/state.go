package conversation

import (
	"context"
	"sync"
	"time"
)

// Step is the intake position of one conversation.
type Step string

const (
	StepNone          Step = ""
	StepAwaitingPhone Step = "awaiting_phone"
	StepCategory      Step = "category"
	StepOrderSelect   Step = "order_select"
	StepDescription   Step = "description"
)

// State is per-conversation scratch data held only while intake is in
// flight. It is cleared the moment a ticket is created or the conversation
// is abandoned; it is never part of the durable ticket record.
type State struct {
	Step      Step              `json:"step"`
	Category  string            `json:"category,omitempty"`
	Order     string            `json:"order,omitempty"`
	OrdersMap map[string]string `json:"orders_map,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store keeps transient conversation state keyed by chat id.
type Store interface {
	Get(ctx context.Context, chatID int64) (*State, error)
	Put(ctx context.Context, chatID int64, state *State) error
	Clear(ctx context.Context, chatID int64) error
}

// memoryStore is the default in-process store. Entries expire lazily after
// the TTL so abandoned intakes do not accumulate.
type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]*State
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore builds an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		states: make(map[int64]*State),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *memoryStore) Get(ctx context.Context, chatID int64) (*State, error) {
	s.mu.RLock()
	state, ok := s.states[chatID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.now().Sub(state.UpdatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.states, chatID)
		s.mu.Unlock()
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (s *memoryStore) Put(ctx context.Context, chatID int64, state *State) error {
	copied := *state
	copied.UpdatedAt = s.now()
	s.mu.Lock()
	s.states[chatID] = &copied
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Clear(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.states, chatID)
	s.mu.Unlock()
	return nil
}
