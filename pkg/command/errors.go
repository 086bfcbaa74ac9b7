package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error tags for wire encoding and logging.
const (
	TagValidationError     = "ValidationError"
	TagHandlerNotFound     = "HandlerNotFound"
	TagExecutionError      = "ExecutionError"
	TagAggregateNotFound   = "AggregateNotFound"
	TagConcurrencyConflict = "ConcurrencyConflict"
	TagUnknownError        = "UnknownError"
)

// Error is the tagged union of command failure causes.
//
// Variants are mutually exclusive: ValidationError, HandlerNotFound,
// ExecutionError, AggregateNotFound, ConcurrencyConflict, UnknownError.
type Error interface {
	error

	// Tag returns the variant discriminator.
	Tag() string
}

// ValidationError indicates the command payload failed its schema.
type ValidationError struct {
	CommandID   string   `json:"commandId"`
	CommandName string   `json:"commandName"`
	Errors      []string `json:"validationErrors"`
}

// Tag implements Error.
func (*ValidationError) Tag() string { return TagValidationError }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command %q (%s) failed validation: %s",
		e.CommandName, e.CommandID, strings.Join(e.Errors, "; "))
}

// HandlerNotFound indicates no definition exists for the command name.
type HandlerNotFound struct {
	CommandID         string   `json:"commandId"`
	CommandName       string   `json:"commandName"`
	AvailableHandlers []string `json:"availableHandlers"`
}

// Tag implements Error.
func (*HandlerNotFound) Tag() string { return TagHandlerNotFound }

func (e *HandlerNotFound) Error() string {
	return fmt.Sprintf("no handler for command %q (%s), available: %s",
		e.CommandName, e.CommandID, strings.Join(e.AvailableHandlers, ", "))
}

// ExecutionError indicates a domain-specific failure reported by a handler.
type ExecutionError struct {
	CommandID   string `json:"commandId"`
	CommandName string `json:"commandName"`
	Message     string `json:"message"`
}

// Tag implements Error.
func (*ExecutionError) Tag() string { return TagExecutionError }

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command %q (%s) failed: %s", e.CommandName, e.CommandID, e.Message)
}

// AggregateNotFound indicates the command targeted a missing aggregate.
type AggregateNotFound struct {
	CommandID   string `json:"commandId"`
	CommandName string `json:"commandName"`
	AggregateID string `json:"aggregateId"`
}

// Tag implements Error.
func (*AggregateNotFound) Tag() string { return TagAggregateNotFound }

func (e *AggregateNotFound) Error() string {
	return fmt.Sprintf("aggregate %q not found for command %q (%s)",
		e.AggregateID, e.CommandName, e.CommandID)
}

// ConcurrencyConflict indicates an optimistic concurrency check failed.
type ConcurrencyConflict struct {
	ExpectedVersion uint64 `json:"expectedVersion"`
	ActualVersion   uint64 `json:"actualVersion"`
}

// Tag implements Error.
func (*ConcurrencyConflict) Tag() string { return TagConcurrencyConflict }

func (e *ConcurrencyConflict) Error() string {
	return fmt.Sprintf("concurrency conflict: expected version %d, actual %d",
		e.ExpectedVersion, e.ActualVersion)
}

// UnknownError reifies an unexpected handler defect or an opaque error
// string received over the wire.
type UnknownError struct {
	CommandID string `json:"commandId"`
	Message   string `json:"message"`
}

// Tag implements Error.
func (*UnknownError) Tag() string { return TagUnknownError }

func (e *UnknownError) Error() string {
	return fmt.Sprintf("command %s failed: %s", e.CommandID, e.Message)
}

// Compile-time variant checks.
var (
	_ Error = (*ValidationError)(nil)
	_ Error = (*HandlerNotFound)(nil)
	_ Error = (*ExecutionError)(nil)
	_ Error = (*AggregateNotFound)(nil)
	_ Error = (*ConcurrencyConflict)(nil)
	_ Error = (*UnknownError)(nil)
)

// taggedError is the wire form of a command error: the variant's fields
// plus a "_tag" discriminator.
type taggedError struct {
	Tag string `json:"_tag"`
}

// EncodeError encodes a command error as a JSON string for the
// command_result wire message. Clients treat the string as opaque.
func EncodeError(err Error) string {
	fields, merr := json.Marshal(err)
	if merr != nil {
		return err.Error()
	}

	// Splice the _tag discriminator into the variant's own fields.
	tag, _ := json.Marshal(taggedError{Tag: err.Tag()})
	if len(fields) <= 2 { // "{}"
		return string(tag)
	}
	return string(tag[:len(tag)-1]) + "," + string(fields[1:])
}
