package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/journal"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/loxerr"
	"github.com/chazu/lox/vm"
)

// defaultSession names evaluations made without a session in the journal.
const defaultSession = "default"

// EvalService implements the EvaluationService Connect handlers.
type EvalService struct {
	worker   *VMWorker // used when a request names no session
	sessions *SessionStore
	journal  *journal.Journal // optional
}

// NewEvalService creates an EvalService. j may be nil.
func NewEvalService(worker *VMWorker, sessions *SessionStore, j *journal.Journal) *EvalService {
	return &EvalService{
		worker:   worker,
		sessions: sessions,
		journal:  j,
	}
}

// Evaluate compiles and executes a Lox expression. Compile and runtime
// failures are reported in the response, not as Connect errors.
func (s *EvalService) Evaluate(
	ctx context.Context,
	req *connect.Request[EvaluateRequest],
) (*connect.Response[EvaluateResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	worker, sessionName := s.worker, defaultSession
	if id := req.Msg.SessionID; id != "" {
		session, ok := s.sessions.Get(id)
		if !ok {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
		}
		worker, sessionName = session.worker, session.ID
	}

	result, err := worker.Do(func(v *vm.VM) any {
		return evaluate(v, source)
	})
	if err != nil {
		if errors.Is(err, errWorkerStopped) {
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		return connect.NewResponse(&EvaluateResponse{
			Success: false,
			Error:   err.Error(),
		}), nil
	}

	resp := result.(*EvaluateResponse)
	s.record(ctx, sessionName, source, resp)
	return connect.NewResponse(resp), nil
}

// CheckSyntax compiles source without executing it.
func (s *EvalService) CheckSyntax(
	ctx context.Context,
	req *connect.Request[CheckSyntaxRequest],
) (*connect.Response[CheckSyntaxResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	_, err := compiler.CompileSource(source)
	return connect.NewResponse(&CheckSyntaxResponse{
		Valid:       err == nil,
		Diagnostics: wireDiagnostics(err),
	}), nil
}

// Disassemble compiles source and returns the chunk listing.
func (s *EvalService) Disassemble(
	ctx context.Context,
	req *connect.Request[DisassembleRequest],
) (*connect.Response[DisassembleResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	chunk, err := compiler.CompileSource(source)
	if err != nil {
		return connect.NewResponse(&DisassembleResponse{Diagnostics: wireDiagnostics(err)}), nil
	}

	name := req.Msg.Name
	if name == "" {
		name = "chunk"
	}
	return connect.NewResponse(&DisassembleResponse{
		Listing:      chunk.DisassembleWithName(name),
		Instructions: chunk.Len(),
		Constants:    chunk.ConstantCount(),
	}), nil
}

// record journals an evaluation. Journal failures are logged and do not
// fail the request.
func (s *EvalService) record(ctx context.Context, session, source string, resp *EvaluateResponse) {
	if s.journal == nil {
		return
	}
	entry := journal.Entry{
		Session: session,
		Source:  source,
		Outcome: journal.OutcomeOK,
		Value:   resp.Value,
	}
	if !resp.Success {
		entry.Outcome = journal.Outcome(resp.Kind)
		entry.Message = resp.Error
	}
	if _, err := s.journal.Record(ctx, entry); err != nil {
		log.Warningf("journal record failed: %s", err)
	}
}

// evaluate compiles and runs source. Must be called on the VM worker
// goroutine.
func evaluate(v *vm.VM, source string) *EvaluateResponse {
	value, err := v.Eval(source)
	return evaluateResponse(value, err)
}

func evaluateResponse(value bytecode.Value, err error) *EvaluateResponse {
	if err == nil {
		return &EvaluateResponse{Success: true, Value: value.String()}
	}

	resp := &EvaluateResponse{Success: false, Error: err.Error()}
	var lerr *loxerr.Error
	if errors.As(err, &lerr) {
		resp.Kind = lerr.Kind.String()
		resp.Line = lerr.Line
		if lerr.Kind == loxerr.KindRuntime {
			resp.Fault = lerr.Fault.String()
		}
		resp.Diagnostics = wireDiagnostics(err)
	}
	return resp
}
