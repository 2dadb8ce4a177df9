package server

import (
	"errors"
	"time"

	"github.com/chazu/lox/journal"
	"github.com/chazu/lox/pkg/loxerr"
)

// Procedure paths served over Connect.
const (
	EvaluateProcedure       = "/lox.v1.EvaluationService/Evaluate"
	CheckSyntaxProcedure    = "/lox.v1.EvaluationService/CheckSyntax"
	DisassembleProcedure    = "/lox.v1.EvaluationService/Disassemble"
	CreateSessionProcedure  = "/lox.v1.SessionService/CreateSession"
	DestroySessionProcedure = "/lox.v1.SessionService/DestroySession"
	SessionHistoryProcedure = "/lox.v1.SessionService/History"
)

// Diagnostic is a compile diagnostic as sent on the wire.
type Diagnostic struct {
	Line    int    `json:"line"`
	Lexeme  string `json:"lexeme,omitempty"`
	AtEnd   bool   `json:"at_end,omitempty"`
	Message string `json:"message"`
	Text    string `json:"text"` // "[line N] Error at 'x': message"
}

func wireDiagnostics(err error) []Diagnostic {
	var lerr *loxerr.Error
	if !errors.As(err, &lerr) || lerr.Kind != loxerr.KindCompile {
		return nil
	}
	out := make([]Diagnostic, len(lerr.Diagnostics))
	for i, d := range lerr.Diagnostics {
		out[i] = Diagnostic{
			Line:    d.Line,
			Lexeme:  d.Lexeme,
			AtEnd:   d.AtEnd,
			Message: d.Message,
			Text:    d.String(),
		}
	}
	return out
}

// --- EvaluationService ---

type EvaluateRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Source    string `json:"source"`
}

type EvaluateResponse struct {
	Success     bool         `json:"success"`
	Value       string       `json:"value,omitempty"`
	Kind        string       `json:"kind,omitempty"`  // "compile" or "runtime" on failure
	Fault       string       `json:"fault,omitempty"` // runtime fault name
	Line        int          `json:"line,omitempty"`
	Error       string       `json:"error,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

type CheckSyntaxRequest struct {
	Source string `json:"source"`
}

type CheckSyntaxResponse struct {
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

type DisassembleRequest struct {
	Source string `json:"source"`
	Name   string `json:"name,omitempty"`
}

type DisassembleResponse struct {
	Listing      string       `json:"listing,omitempty"`
	Instructions int          `json:"instructions"`
	Constants    int          `json:"constants"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
}

// --- SessionService ---

type CreateSessionRequest struct {
	Name string `json:"name,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type DestroySessionRequest struct {
	SessionID string `json:"session_id"`
}

type DestroySessionResponse struct{}

type SessionHistoryRequest struct {
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit,omitempty"`
}

type HistoryEntry struct {
	Source    string    `json:"source"`
	Outcome   string    `json:"outcome"`
	Value     string    `json:"value,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionHistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

func historyEntries(entries []journal.Entry) []HistoryEntry {
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{
			Source:    e.Source,
			Outcome:   string(e.Outcome),
			Value:     e.Value,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}
