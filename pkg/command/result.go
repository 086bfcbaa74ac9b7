package command

import (
	"github.com/CodeForBreakfast/eventsourcing-go/pkg/stream"
)

// Result is the outcome of dispatching a single command.
//
// It is a tagged union with exactly two variants, Success and Failure.
// Dispatch always produces a Result; it never signals domain failures
// through Go errors or panics.
type Result interface {
	// Succeeded reports whether this is the Success variant.
	Succeeded() bool

	isResult()
}

// Success carries the stream position at which the command's events were
// appended.
type Success struct {
	Position stream.Position
}

// Failure carries the typed command error.
type Failure struct {
	Err Error
}

// Succeeded implements Result.
func (Success) Succeeded() bool { return true }

// Succeeded implements Result.
func (Failure) Succeeded() bool { return false }

func (Success) isResult() {}
func (Failure) isResult() {}

// Compile-time variant checks.
var (
	_ Result = Success{}
	_ Result = Failure{}
)
