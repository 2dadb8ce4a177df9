package server

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/chazu/lox/journal"
)

// defaultHistoryLimit caps History responses when the request sets no limit.
const defaultHistoryLimit = 50

// SessionService implements the SessionService Connect handlers.
type SessionService struct {
	sessions *SessionStore
	journal  *journal.Journal // optional
}

// NewSessionService creates a SessionService. j may be nil.
func NewSessionService(sessions *SessionStore, j *journal.Journal) *SessionService {
	return &SessionService{
		sessions: sessions,
		journal:  j,
	}
}

// CreateSession creates a new session with its own VM.
func (s *SessionService) CreateSession(
	ctx context.Context,
	req *connect.Request[CreateSessionRequest],
) (*connect.Response[CreateSessionResponse], error) {
	session := s.sessions.Create(req.Msg.Name)
	return connect.NewResponse(&CreateSessionResponse{
		SessionID: session.ID,
	}), nil
}

// DestroySession destroys a session and stops its VM.
func (s *SessionService) DestroySession(
	ctx context.Context,
	req *connect.Request[DestroySessionRequest],
) (*connect.Response[DestroySessionResponse], error) {
	if req.Msg.SessionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session_id is required"))
	}
	if !s.sessions.Destroy(req.Msg.SessionID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", req.Msg.SessionID))
	}
	return connect.NewResponse(&DestroySessionResponse{}), nil
}

// History returns a session's journaled evaluations, newest first. The
// journal outlives sessions, so destroyed sessions can still be queried.
func (s *SessionService) History(
	ctx context.Context,
	req *connect.Request[SessionHistoryRequest],
) (*connect.Response[SessionHistoryResponse], error) {
	if s.journal == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("journal is disabled"))
	}

	session := req.Msg.SessionID
	if session == "" {
		session = defaultSession
	}
	limit := req.Msg.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := s.journal.Recent(ctx, session, limit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&SessionHistoryResponse{
		Entries: historyEntries(entries),
	}), nil
}
