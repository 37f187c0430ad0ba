package gps

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Session guards one Data record. Writers go through Apply; readers get
// copies in which Set and the fields it names always agree.
type Session struct {
	id     uuid.UUID
	logger *log.Logger

	mu   sync.RWMutex
	data Data
}

// NewSession returns an empty session. A nil logger means log.Default().
func NewSession(logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	id := uuid.New()
	s := &Session{
		id:     id,
		logger: log.New(logger.Writer(), fmt.Sprintf("%ssession %s: ", logger.Prefix(), id.String()[:8]), logger.Flags()),
	}
	s.data.Clear()
	return s
}

func (s *Session) ID() uuid.UUID { return s.id }

// Logger returns a logger whose prefix names the session.
func (s *Session) Logger() *log.Logger { return s.logger }

// Apply merges a partial update.
func (s *Session) Apply(in *Data, mask Mask) (Mask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Merge(in, mask)
}

// Update runs fn on the record under the write lock.
func (s *Session) Update(fn func(d *Data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// Snapshot returns a deep copy of the record.
func (s *Session) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Consume returns a snapshot and clears Set.
func (s *Session) Consume() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.data.Clone()
	s.data.ClearSet()
	return out
}

// Reset empties the record.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Clear()
}
