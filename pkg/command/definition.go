package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Command is a domain command: a wire command whose payload has passed its
// definition's schema.
type Command struct {
	// ID is the external correlation identifier (usually a UUID).
	ID string

	// Target identifies the aggregate the command addresses.
	Target string

	// Name is the registered command name.
	Name string

	// Payload is the schema-validated payload, typed per definition.
	Payload any
}

// Handler executes a validated command and reports the outcome as a Result.
//
// Handlers must be total over validated payloads: domain failures are
// returned as Failure variants, never as panics. A panicking handler is a
// defect and is contained by the registry.
type Handler func(ctx context.Context, cmd Command) Result

// PayloadSchema decodes and validates a raw command payload.
type PayloadSchema interface {
	// Decode parses data and returns the typed payload, or the list of
	// validation messages on failure.
	Decode(data json.RawMessage) (any, []string)
}

// Definition binds a command name to its payload schema and handler.
type Definition struct {
	Name    string
	Schema  PayloadSchema
	Handler Handler
}

// validate is the shared validator instance. Struct rules are expressed
// with `validate` tags (go-playground/validator).
var validate = validator.New(validator.WithRequiredStructEnabled())

// structSchema decodes JSON into T and checks its `validate` tags.
type structSchema[T any] struct{}

// StructSchema returns a PayloadSchema that unmarshals the payload into T
// and validates it with go-playground/validator struct tags.
//
//	type CreateUser struct {
//	    Email string `json:"email" validate:"required,email"`
//	    Name  string `json:"name" validate:"required"`
//	}
//
//	command.Definition{
//	    Name:    "CreateUser",
//	    Schema:  command.StructSchema[CreateUser](),
//	    Handler: handleCreateUser,
//	}
func StructSchema[T any]() PayloadSchema {
	return structSchema[T]{}
}

// Decode implements PayloadSchema.
func (structSchema[T]) Decode(data json.RawMessage) (any, []string) {
	var payload T
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, []string{fmt.Sprintf("invalid payload JSON: %v", err)}
	}

	if err := validate.Struct(payload); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, []string{err.Error()}
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("field %q failed rule %q", fe.Field(), fe.Tag()))
		}
		return nil, msgs
	}

	return payload, nil
}

// schemaFunc adapts a plain function to PayloadSchema.
type schemaFunc func(data json.RawMessage) (any, []string)

// SchemaFunc adapts f to a PayloadSchema for payloads that need custom
// decoding logic.
func SchemaFunc(f func(data json.RawMessage) (any, []string)) PayloadSchema {
	return schemaFunc(f)
}

// Decode implements PayloadSchema.
func (f schemaFunc) Decode(data json.RawMessage) (any, []string) {
	return f(data)
}
