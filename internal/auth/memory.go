package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySessions keeps sessions in process. Used when no Redis is configured.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	accountID string
	expires   time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]memorySession), now: time.Now}
}

func (s *MemorySessions) Create(_ context.Context, accountID string) (string, error) {
	sid := uuid.NewString()
	s.mu.Lock()
	s.sessions[sid] = memorySession{accountID: accountID, expires: s.now().Add(SessionTTL)}
	s.mu.Unlock()
	return sid, nil
}

func (s *MemorySessions) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", nil
	}
	if s.now().After(sess.expires) {
		delete(s.sessions, sessionID)
		return "", nil
	}
	return sess.accountID, nil
}

func (s *MemorySessions) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}
