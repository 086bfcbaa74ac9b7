package command

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/stream"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/wire"
)

type createUserPayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

func okHandler(t *testing.T) Handler {
	t.Helper()
	return func(ctx context.Context, cmd Command) Result {
		return Success{Position: stream.Position{StreamID: cmd.Target, EventNumber: 1}}
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Definition{
		Name:    "CreateUser",
		Schema:  StructSchema[createUserPayload](),
		Handler: okHandler(t),
	})
	require.NoError(t, err)
	return r
}

func TestNewRegistry(t *testing.T) {
	schema := StructSchema[createUserPayload]()
	handler := okHandler(t)

	tests := []struct {
		name    string
		defs    []Definition
		wantErr string
	}{
		{
			name: "valid",
			defs: []Definition{{Name: "CreateUser", Schema: schema, Handler: handler}},
		},
		{
			name: "empty registry is valid",
		},
		{
			name:    "empty name",
			defs:    []Definition{{Schema: schema, Handler: handler}},
			wantErr: "empty name",
		},
		{
			name:    "nil schema",
			defs:    []Definition{{Name: "CreateUser", Handler: handler}},
			wantErr: "no payload schema",
		},
		{
			name:    "nil handler",
			defs:    []Definition{{Name: "CreateUser", Schema: schema}},
			wantErr: "no handler",
		},
		{
			name: "duplicate name",
			defs: []Definition{
				{Name: "CreateUser", Schema: schema, Handler: handler},
				{Name: "CreateUser", Schema: schema, Handler: handler},
			},
			wantErr: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs...)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestRegistryNames(t *testing.T) {
	schema := StructSchema[createUserPayload]()
	handler := okHandler(t)

	r, err := NewRegistry(
		Definition{Name: "RenameUser", Schema: schema, Handler: handler},
		Definition{Name: "CreateUser", Schema: schema, Handler: handler},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"CreateUser", "RenameUser"}, r.Names())

	// The returned slice is a copy.
	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"CreateUser", "RenameUser"}, r.Names())
}

func TestDispatchSuccess(t *testing.T) {
	r := testRegistry(t)

	res := r.Dispatch(context.Background(), &wire.Command{
		ID:      "cmd-1",
		Target:  "user-456",
		Name:    "CreateUser",
		Payload: json.RawMessage(`{"email":"ada@example.com","name":"Ada"}`),
	})

	require.True(t, res.Succeeded())
	success := res.(Success)
	assert.Equal(t, "user-456", success.Position.StreamID)
	assert.Equal(t, uint64(1), success.Position.EventNumber)
}

func TestDispatchValidation(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name      string
		payload   string
		wantField string
	}{
		{name: "invalid email", payload: `{"email":"not-an-email","name":"Ada"}`, wantField: "Email"},
		{name: "missing name", payload: `{"email":"ada@example.com"}`, wantField: "Name"},
		{name: "empty payload", payload: `{}`, wantField: "Email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Dispatch(context.Background(), &wire.Command{
				ID:      "cmd-1",
				Target:  "user-456",
				Name:    "CreateUser",
				Payload: json.RawMessage(tt.payload),
			})

			require.False(t, res.Succeeded())
			failure := res.(Failure)
			verr, ok := failure.Err.(*ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", failure.Err)

			assert.Equal(t, "cmd-1", verr.CommandID)
			assert.Equal(t, "CreateUser", verr.CommandName)
			require.NotEmpty(t, verr.Errors)
			assert.True(t, strings.Contains(strings.Join(verr.Errors, ";"), tt.wantField),
				"expected a message about %s, got %v", tt.wantField, verr.Errors)
		})
	}
}

func TestDispatchMalformedPayload(t *testing.T) {
	r := testRegistry(t)

	res := r.Dispatch(context.Background(), &wire.Command{
		ID:      "cmd-1",
		Name:    "CreateUser",
		Payload: json.RawMessage(`{broken`),
	})

	require.False(t, res.Succeeded())
	verr, ok := res.(Failure).Err.(*ValidationError)
	require.True(t, ok)
	require.NotEmpty(t, verr.Errors)
	assert.Contains(t, verr.Errors[0], "invalid payload JSON")
}

func TestDispatchHandlerNotFound(t *testing.T) {
	r := testRegistry(t)

	res := r.Dispatch(context.Background(), &wire.Command{
		ID:   "cmd-1",
		Name: "DeleteUser",
	})

	require.False(t, res.Succeeded())
	nf, ok := res.(Failure).Err.(*HandlerNotFound)
	require.True(t, ok, "expected *HandlerNotFound, got %T", res.(Failure).Err)
	assert.Equal(t, "DeleteUser", nf.CommandName)
	assert.Equal(t, []string{"CreateUser"}, nf.AvailableHandlers)
}

func TestDispatchHandlerPanic(t *testing.T) {
	r, err := NewRegistry(Definition{
		Name:   "Explode",
		Schema: SchemaFunc(func(json.RawMessage) (any, []string) { return nil, nil }),
		Handler: func(ctx context.Context, cmd Command) Result {
			panic("boom")
		},
	})
	require.NoError(t, err)

	res := r.Dispatch(context.Background(), &wire.Command{ID: "cmd-1", Name: "Explode"})

	require.False(t, res.Succeeded())
	unknown, ok := res.(Failure).Err.(*UnknownError)
	require.True(t, ok, "expected *UnknownError, got %T", res.(Failure).Err)
	assert.Equal(t, "cmd-1", unknown.CommandID)
	assert.Contains(t, unknown.Message, "handler panic: boom")
}

func TestDispatchDomainFailure(t *testing.T) {
	r, err := NewRegistry(Definition{
		Name:   "Reject",
		Schema: SchemaFunc(func(json.RawMessage) (any, []string) { return nil, nil }),
		Handler: func(ctx context.Context, cmd Command) Result {
			return Failure{Err: &AggregateNotFound{
				CommandID:   cmd.ID,
				CommandName: cmd.Name,
				AggregateID: cmd.Target,
			}}
		},
	})
	require.NoError(t, err)

	res := r.Dispatch(context.Background(), &wire.Command{
		ID:     "cmd-1",
		Target: "user-404",
		Name:   "Reject",
	})

	require.False(t, res.Succeeded())
	nf, ok := res.(Failure).Err.(*AggregateNotFound)
	require.True(t, ok)
	assert.Equal(t, "user-404", nf.AggregateID)
}
