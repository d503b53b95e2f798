package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotEmpty is returned by Load when nothing has been stored yet
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is one named durable key holding an opaque document.
// Store overwrites the previous value; readers never observe a partial write.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// MemorySlot keeps the document in memory
type MemorySlot struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemorySlot creates an empty in-memory slot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Load returns a copy of the stored document
func (s *MemorySlot) Load(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

// Store replaces the stored document
func (s *MemorySlot) Store(ctx context.Context, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.data = buf
	s.mu.Unlock()
	return nil
}

// Ping always succeeds
func (s *MemorySlot) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemorySlot) Close() error {
	return nil
}
