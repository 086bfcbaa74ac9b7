package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/CodeForBreakfast/eventsourcing-go/pkg/command"
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/eventstore"
)

// The demo domain: user aggregates with create and rename commands. Each
// command appends one event to the stream named by the command's target.

// CreateUserPayload is the payload of the CreateUser command.
type CreateUserPayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

// RenameUserPayload is the payload of the RenameUser command.
type RenameUserPayload struct {
	Name string `json:"name" validate:"required"`
}

// NewUserRegistry builds the demo command registry on top of the store.
func NewUserRegistry(store eventstore.Store) (*command.Registry, error) {
	return command.NewRegistry(
		command.Definition{
			Name:    "CreateUser",
			Schema:  command.StructSchema[CreateUserPayload](),
			Handler: createUser(store),
		},
		command.Definition{
			Name:    "RenameUser",
			Schema:  command.StructSchema[RenameUserPayload](),
			Handler: renameUser(store),
		},
	)
}

func createUser(store eventstore.Store) command.Handler {
	return func(ctx context.Context, cmd command.Command) command.Result {
		payload := cmd.Payload.(CreateUserPayload)

		data, err := json.Marshal(payload)
		if err != nil {
			return command.Failure{Err: &command.ExecutionError{
				CommandID:   cmd.ID,
				CommandName: cmd.Name,
				Message:     err.Error(),
			}}
		}

		// A create targets a fresh stream: expected version 0.
		pos, err := store.Append(ctx, cmd.Target, 0, []eventstore.NewEvent{
			{Type: "UserCreated", Data: data},
		})
		if err != nil {
			if errors.Is(err, eventstore.ErrVersionConflict) {
				actual, _ := store.Version(ctx, cmd.Target)
				return command.Failure{Err: &command.ConcurrencyConflict{
					ExpectedVersion: 0,
					ActualVersion:   actual,
				}}
			}
			return command.Failure{Err: &command.ExecutionError{
				CommandID:   cmd.ID,
				CommandName: cmd.Name,
				Message:     err.Error(),
			}}
		}

		return command.Success{Position: pos}
	}
}

func renameUser(store eventstore.Store) command.Handler {
	return func(ctx context.Context, cmd command.Command) command.Result {
		payload := cmd.Payload.(RenameUserPayload)

		version, err := store.Version(ctx, cmd.Target)
		if err != nil {
			return command.Failure{Err: &command.AggregateNotFound{
				CommandID:   cmd.ID,
				CommandName: cmd.Name,
				AggregateID: cmd.Target,
			}}
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return command.Failure{Err: &command.ExecutionError{
				CommandID:   cmd.ID,
				CommandName: cmd.Name,
				Message:     err.Error(),
			}}
		}

		pos, err := store.Append(ctx, cmd.Target, version, []eventstore.NewEvent{
			{Type: "UserRenamed", Data: data},
		})
		if err != nil {
			if errors.Is(err, eventstore.ErrVersionConflict) {
				actual, _ := store.Version(ctx, cmd.Target)
				return command.Failure{Err: &command.ConcurrencyConflict{
					ExpectedVersion: version,
					ActualVersion:   actual,
				}}
			}
			return command.Failure{Err: &command.ExecutionError{
				CommandID:   cmd.ID,
				CommandName: cmd.Name,
				Message:     err.Error(),
			}}
		}

		return command.Success{Position: pos}
	}
}
