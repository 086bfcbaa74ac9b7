// Package command implements the command registry of the event-sourcing
// runtime: named command definitions with payload schemas, validated
// dispatch, and tagged success/failure results.
//
// # Defining commands
//
//	type CreateUser struct {
//	    Email string `json:"email" validate:"required,email"`
//	    Name  string `json:"name" validate:"required"`
//	}
//
//	registry, err := command.NewRegistry(command.Definition{
//	    Name:   "CreateUser",
//	    Schema: command.StructSchema[CreateUser](),
//	    Handler: func(ctx context.Context, cmd command.Command) command.Result {
//	        payload := cmd.Payload.(CreateUser)
//	        // ... append events ...
//	        return command.Success{Position: pos}
//	    },
//	})
//
// # Dispatch
//
// Dispatch is total: unknown names, invalid payloads, and handler panics all
// come back as Failure results carrying a typed command.Error. Handlers
// report domain failures the same way (AggregateNotFound, ConcurrencyConflict,
// ExecutionError); the registry passes those results through unchanged.
package command
