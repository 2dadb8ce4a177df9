package server

import (
	"context"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/lox/journal"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
//
// Each test gets its own server behind httptest and talks to it through
// real Connect clients using the same JSON codec as production.
// ---------------------------------------------------------------------------

type testEnv struct {
	Server  *LoxServer
	HTTP    *httptest.Server
	Journal *journal.Journal

	Evaluate       *connect.Client[EvaluateRequest, EvaluateResponse]
	CheckSyntax    *connect.Client[CheckSyntaxRequest, CheckSyntaxResponse]
	Disassemble    *connect.Client[DisassembleRequest, DisassembleResponse]
	CreateSession  *connect.Client[CreateSessionRequest, CreateSessionResponse]
	DestroySession *connect.Client[DestroySessionRequest, DestroySessionResponse]
	History        *connect.Client[SessionHistoryRequest, SessionHistoryResponse]
}

// newTestEnv starts a server with an in-memory journal. Everything is
// torn down by t.Cleanup.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	j, err := journal.Open(":memory:")
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}

	srv := New(WithJournal(j), WithCacheSize(16))
	hs := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		hs.Close()
		srv.Stop(context.Background())
		j.Close()
	})

	codec := connect.WithCodec(jsonCodec{})
	c := hs.Client()
	return &testEnv{
		Server:         srv,
		HTTP:           hs,
		Journal:        j,
		Evaluate:       connect.NewClient[EvaluateRequest, EvaluateResponse](c, hs.URL+EvaluateProcedure, codec),
		CheckSyntax:    connect.NewClient[CheckSyntaxRequest, CheckSyntaxResponse](c, hs.URL+CheckSyntaxProcedure, codec),
		Disassemble:    connect.NewClient[DisassembleRequest, DisassembleResponse](c, hs.URL+DisassembleProcedure, codec),
		CreateSession:  connect.NewClient[CreateSessionRequest, CreateSessionResponse](c, hs.URL+CreateSessionProcedure, codec),
		DestroySession: connect.NewClient[DestroySessionRequest, DestroySessionResponse](c, hs.URL+DestroySessionProcedure, codec),
		History:        connect.NewClient[SessionHistoryRequest, SessionHistoryResponse](c, hs.URL+SessionHistoryProcedure, codec),
	}
}

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

func bg() context.Context {
	return context.Background()
}
