package server

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/vm"
)

// Session is an evaluation workspace with a VM of its own.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	worker *VMWorker
}

// SessionStore manages evaluation sessions. All session VMs share one
// chunk store, so source compiled in one session is reused by the others.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	chunks   *bytecode.ChunkStore
}

// NewSessionStore creates a new session store.
func NewSessionStore(chunks *bytecode.ChunkStore) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		chunks:   chunks,
	}
}

// newWorker starts a worker around a fresh VM. Results are returned to
// callers, never printed.
func (s *SessionStore) newWorker() *VMWorker {
	return NewVMWorker(vm.New(vm.WithOutput(io.Discard), vm.WithChunkStore(s.chunks)))
}

// Create creates a new session with an optional name.
func (s *SessionStore) Create(name string) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
		worker:    s.newWorker(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Infof("session %s created", session.ID)
	return session
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Destroy removes a session and stops its VM. It reports whether the
// session existed.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		session.worker.Stop()
		log.Infof("session %s destroyed", id)
	}
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// DestroyAll stops every session.
func (s *SessionStore) DestroyAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.worker.Stop()
	}
}
