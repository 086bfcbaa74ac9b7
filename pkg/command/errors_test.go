package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeError(t *testing.T) {
	tests := []struct {
		name    string
		err     Error
		wantTag string
	}{
		{
			name: "validation error",
			err: &ValidationError{
				CommandID:   "cmd-1",
				CommandName: "CreateUser",
				Errors:      []string{"email is invalid"},
			},
			wantTag: TagValidationError,
		},
		{
			name: "handler not found",
			err: &HandlerNotFound{
				CommandID:         "cmd-2",
				CommandName:       "DeleteUser",
				AvailableHandlers: []string{"CreateUser"},
			},
			wantTag: TagHandlerNotFound,
		},
		{
			name:    "execution error",
			err:     &ExecutionError{CommandID: "cmd-3", CommandName: "CreateUser", Message: "store down"},
			wantTag: TagExecutionError,
		},
		{
			name:    "aggregate not found",
			err:     &AggregateNotFound{CommandID: "cmd-4", CommandName: "RenameUser", AggregateID: "user-404"},
			wantTag: TagAggregateNotFound,
		},
		{
			name:    "concurrency conflict",
			err:     &ConcurrencyConflict{ExpectedVersion: 3, ActualVersion: 5},
			wantTag: TagConcurrencyConflict,
		},
		{
			name:    "unknown error",
			err:     &UnknownError{CommandID: "cmd-5", Message: "handler panic: boom"},
			wantTag: TagUnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeError(tt.err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal([]byte(encoded), &decoded),
				"EncodeError must produce valid JSON: %s", encoded)
			assert.Equal(t, tt.wantTag, decoded["_tag"])
		})
	}
}

func TestEncodeErrorCarriesFields(t *testing.T) {
	encoded := EncodeError(&ConcurrencyConflict{ExpectedVersion: 3, ActualVersion: 5})

	var decoded struct {
		Tag             string `json:"_tag"`
		ExpectedVersion uint64 `json:"expectedVersion"`
		ActualVersion   uint64 `json:"actualVersion"`
	}
	require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))
	assert.Equal(t, TagConcurrencyConflict, decoded.Tag)
	assert.Equal(t, uint64(3), decoded.ExpectedVersion)
	assert.Equal(t, uint64(5), decoded.ActualVersion)
}

func TestErrorMessages(t *testing.T) {
	verr := &ValidationError{
		CommandID:   "cmd-1",
		CommandName: "CreateUser",
		Errors:      []string{"bad email", "missing name"},
	}
	assert.Contains(t, verr.Error(), "CreateUser")
	assert.Contains(t, verr.Error(), "bad email; missing name")

	nf := &HandlerNotFound{CommandName: "DeleteUser", AvailableHandlers: []string{"A", "B"}}
	assert.Contains(t, nf.Error(), "A, B")
}
