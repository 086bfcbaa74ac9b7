package command

import (
	"context"
	"fmt"
	"sort"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/wire"
)

// Registry holds a frozen set of command definitions and dispatches wire
// commands to their handlers.
//
// A Registry is stateless between dispatches and safe for concurrent use
// provided the registered handlers are.
type Registry struct {
	defs  map[string]Definition
	names []string // sorted, for HandlerNotFound reporting
}

// NewRegistry builds a registry from the given definitions. Duplicate names,
// empty names, and nil schemas or handlers are construction-time errors.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("command definition has empty name")
		}
		if def.Schema == nil {
			return nil, fmt.Errorf("command %q has no payload schema", def.Name)
		}
		if def.Handler == nil {
			return nil, fmt.Errorf("command %q has no handler", def.Name)
		}
		if _, exists := r.defs[def.Name]; exists {
			return nil, fmt.Errorf("duplicate command definition %q", def.Name)
		}
		r.defs[def.Name] = def
		r.names = append(r.names, def.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Dispatch validates the wire command and invokes the matching handler.
//
// Every failure mode is reified into a Failure result: an unregistered name
// becomes HandlerNotFound, a payload that fails its schema becomes
// ValidationError, and a panicking handler becomes UnknownError. Dispatch
// never panics and never returns a Go error.
func (r *Registry) Dispatch(ctx context.Context, wc *wire.Command) Result {
	def, ok := r.defs[wc.Name]
	if !ok {
		return Failure{Err: &HandlerNotFound{
			CommandID:         wc.ID,
			CommandName:       wc.Name,
			AvailableHandlers: r.Names(),
		}}
	}

	payload, verrs := def.Schema.Decode(wc.Payload)
	if len(verrs) > 0 {
		return Failure{Err: &ValidationError{
			CommandID:   wc.ID,
			CommandName: wc.Name,
			Errors:      verrs,
		}}
	}

	cmd := Command{
		ID:      wc.ID,
		Target:  wc.Target,
		Name:    wc.Name,
		Payload: payload,
	}

	return r.invoke(ctx, def.Handler, cmd)
}

// invoke runs the handler with panic containment.
func (r *Registry) invoke(ctx context.Context, handler Handler, cmd Command) (result Result) {
	defer func() {
		if cause := recover(); cause != nil {
			result = Failure{Err: &UnknownError{
				CommandID: cmd.ID,
				Message:   fmt.Sprintf("handler panic: %v", cause),
			}}
		}
	}()

	return handler(ctx, cmd)
}
