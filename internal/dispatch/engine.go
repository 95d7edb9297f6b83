package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Handler executes one tool with already-decoded arguments. Handlers are
// opaque to the engine: any error they return is reported as a handler
// failure without interpretation, and there are no retries.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Engine routes tool invocations: contract lookup, input validation, handler
// execution, output validation. It holds no mutable state after New, so
// concurrent Calls need no locking.
type Engine struct {
	registry *Registry
	handlers map[string]Handler
}

// New builds an engine from a loaded registry and its handlers. The two must
// be in exact 1:1 correspondence — an orphan schema or orphan handler is a
// startup-integrity error, not something to discover at call time.
func New(registry *Registry, handlers map[string]Handler) (*Engine, error) {
	for _, name := range registry.Names() {
		if handlers[name] == nil {
			return nil, &Error{Kind: KindLoadError, Tool: name, Msg: "contract has no handler"}
		}
	}
	if len(handlers) != len(registry.Names()) {
		orphans := make([]string, 0, 1)
		for name := range handlers {
			if registry.Contract(name) == nil {
				orphans = append(orphans, name)
			}
		}
		sort.Strings(orphans)
		return nil, &Error{Kind: KindLoadError, Msg: fmt.Sprintf("handlers without contract: %v", orphans)}
	}
	return &Engine{registry: registry, handlers: handlers}, nil
}

// ListTools returns the declared contracts in declaration order. Never fails.
func (e *Engine) ListTools() []*ToolContract {
	return e.registry.Tools()
}

// Call validates and executes one tool invocation. The handler result is
// returned verbatim on success; every failure is a *Error with the matching
// kind. The handler is never invoked for an unknown tool or invalid input.
func (e *Engine) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	contract := e.registry.Contract(name)
	if contract == nil {
		return nil, &Error{Kind: KindUnknownTool, Tool: name, Msg: "not registered"}
	}

	if args == nil {
		args = map[string]any{}
	}
	if out := ValidateInput(args, contract.InputSchema); !out.Valid {
		return nil, &Error{Kind: KindInputValidationFailed, Tool: name, Msg: out.Message}
	}

	result, err := e.handlers[name](ctx, args)
	if err != nil {
		slog.Error("tool handler failed", slog.String("tool", name), slog.Any("error", err))
		return nil, &Error{Kind: KindHandlerError, Tool: name, Msg: err.Error(), Err: err}
	}
	if result == nil {
		return nil, &Error{Kind: KindHandlerError, Tool: name, Msg: "no result"}
	}

	if out := ValidateOutput(result, contract.OutputSchema, e.registry.Definitions()); !out.Valid {
		return nil, &Error{Kind: KindOutputValidationFailed, Tool: name, Msg: out.Message}
	}
	return result, nil
}
