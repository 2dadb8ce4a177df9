// Package server exposes the Lox compiler and VM over the network: a
// Connect (HTTP/JSON) evaluation service with per-session VMs, and a
// language server speaking LSP over stdio.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/lox/journal"
	"github.com/chazu/lox/manifest"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/vm"
)

var log = commonlog.GetLogger("lox.server")

// LoxServer serves the evaluation and session services.
type LoxServer struct {
	worker   *VMWorker
	sessions *SessionStore
	chunks   *bytecode.ChunkStore
	mux      *http.ServeMux
	http     *http.Server
}

// ServerOption configures a LoxServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	journal   *journal.Journal
	cacheSize int
}

// WithJournal records every evaluation in j.
func WithJournal(j *journal.Journal) ServerOption {
	return func(c *serverConfig) { c.journal = j }
}

// WithCacheSize bounds the shared chunk store.
func WithCacheSize(n int) ServerOption {
	return func(c *serverConfig) { c.cacheSize = n }
}

// New creates a LoxServer with its handlers registered.
func New(opts ...ServerOption) *LoxServer {
	cfg := &serverConfig{cacheSize: manifest.DefaultCacheSize}
	for _, opt := range opts {
		opt(cfg)
	}

	chunks := bytecode.NewChunkStore(cfg.cacheSize)
	sessions := NewSessionStore(chunks)
	worker := NewVMWorker(vm.New(vm.WithOutput(io.Discard), vm.WithChunkStore(chunks)))

	s := &LoxServer{
		worker:   worker,
		sessions: sessions,
		chunks:   chunks,
		mux:      http.NewServeMux(),
	}
	s.http = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	evalSvc := NewEvalService(worker, sessions, cfg.journal)
	sessionSvc := NewSessionService(sessions, cfg.journal)

	codec := connect.WithCodec(jsonCodec{})
	s.mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure, evalSvc.Evaluate, codec))
	s.mux.Handle(CheckSyntaxProcedure, connect.NewUnaryHandler(CheckSyntaxProcedure, evalSvc.CheckSyntax, codec))
	s.mux.Handle(DisassembleProcedure, connect.NewUnaryHandler(DisassembleProcedure, evalSvc.Disassemble, codec))
	s.mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, sessionSvc.CreateSession, codec))
	s.mux.Handle(DestroySessionProcedure, connect.NewUnaryHandler(DestroySessionProcedure, sessionSvc.DestroySession, codec))
	s.mux.Handle(SessionHistoryProcedure, connect.NewUnaryHandler(SessionHistoryProcedure, sessionSvc.History, codec))

	return s
}

// Handler returns the HTTP handler serving all procedures.
func (s *LoxServer) Handler() http.Handler {
	return s.mux
}

// Sessions returns the server's session store.
func (s *LoxServer) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until it stops. The address should be in the form "host:port" or ":port".
// It returns nil once Stop has been called, including when Stop ran first.
func (s *LoxServer) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (s *LoxServer) Serve(ln net.Listener) error {
	log.Noticef("Lox evaluation server listening on %s", ln.Addr())
	log.Infof("  Connect (HTTP/JSON): http://%s%s", ln.Addr(), EvaluateProcedure)

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down the HTTP server and every VM.
func (s *LoxServer) Stop(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.sessions.DestroyAll()
	s.worker.Stop()
	return err
}
