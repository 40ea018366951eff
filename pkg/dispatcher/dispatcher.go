package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

const logPrefix = "dispatcher:dispatch"

var (
	// ErrDuplicateHandlerName is returned by New when two registrations share a name.
	ErrDuplicateHandlerName = errors.New("duplicate handler name")
	// ErrInvalidHandlerName is returned by New for an empty command name.
	ErrInvalidHandlerName = errors.New("invalid handler name")
	// ErrNilHandler is returned by New when a registration has no handler.
	ErrNilHandler = errors.New("nil handler")
)

// Handler executes one command. It owns argument validation and reports bad
// input as a Failure outcome.
type Handler func(ctx context.Context, args Value) Outcome

// Registration binds a command name to its handler.
type Registration struct {
	Name    string
	Handler Handler
}

// Dispatcher routes invocations to a fixed set of named handlers.
// The handler map is never written after New returns, so Dispatch needs no locking.
type Dispatcher struct {
	handlers map[string]Handler
}

// New builds a Dispatcher from the given registrations. On any error no
// dispatcher is returned and none of the handlers are registered.
func New(regs ...Registration) (*Dispatcher, error) {
	handlers := make(map[string]Handler, len(regs))
	for _, reg := range regs {
		if reg.Name == "" {
			return nil, fmt.Errorf("%s - %w", logPrefix, ErrInvalidHandlerName)
		}
		if reg.Handler == nil {
			return nil, fmt.Errorf("%s - %w: %s", logPrefix, ErrNilHandler, reg.Name)
		}
		if _, exists := handlers[reg.Name]; exists {
			return nil, fmt.Errorf("%s - %w: %s", logPrefix, ErrDuplicateHandlerName, reg.Name)
		}
		handlers[reg.Name] = reg.Handler
	}
	return &Dispatcher{handlers: handlers}, nil
}

// Dispatch resolves inv.Name and returns exactly one outcome. Unknown names
// yield Unsupported without invoking anything.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) Outcome {
	slog.Debug(fmt.Sprintf("%s - method=%s", logPrefix, inv.Name))

	h, ok := d.handlers[inv.Name]
	if !ok {
		return Unsupported()
	}
	return invoke(ctx, h, inv)
}

// Has reports whether a handler is registered under name.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Names returns the registered command names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func invoke(ctx context.Context, h Handler, inv Invocation) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - handler %s panicked: %v", logPrefix, inv.Name, r))
			out = Failure(CodeInternalError, fmt.Sprintf("handler %s panicked: %v", inv.Name, r), nil)
		}
	}()

	out = h(ctx, inv.Arguments)
	if !out.Valid() {
		slog.Error(fmt.Sprintf("%s - handler %s produced no outcome", logPrefix, inv.Name))
		return Failure(CodeInternalError, fmt.Sprintf("handler %s produced no outcome", inv.Name), nil)
	}
	return out
}

// Func adapts a plain function into a Handler. A nil error becomes Success
// and any error is classified by FailureFromError.
func Func(fn func(ctx context.Context, args Value) (Value, error)) Handler {
	return func(ctx context.Context, args Value) Outcome {
		v, err := fn(ctx, args)
		if err != nil {
			return FailureFromError(err)
		}
		return Success(v)
	}
}
