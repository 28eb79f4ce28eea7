package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for the translation pipeline.
//
// ExecutionError and SchemaValidationError are recovered locally through the
// healing loop up to the configured ceiling. BridgeError is never retried
// through healing: regenerating code cannot fix a missing process. A
// ProviderError surfaces immediately unless the caller treats it as
// retryable.

// ProviderError wraps a failure talking to the language model provider:
// unreachable endpoint, quota exhaustion, or a malformed response.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ExecutionError means generated code raised during execution in the
// bridge's namespace. Healing-eligible.
type ExecutionError struct {
	Code   string
	Detail string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %s", e.Detail)
}

// SchemaValidationError means an extract() payload did not conform to the
// caller-supplied shape. Handled as an ExecutionError for healing purposes:
// the fix is to regenerate, not to reparse.
type SchemaValidationError struct {
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("schema validation failed: field %q: %s", e.Field, e.Reason)
}

// BridgeError wraps a debugger bridge failure such as no attached target or
// a lost connection. Surfaced immediately, never healed.
type BridgeError struct {
	Op  string
	Err error
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge %s: %v", e.Op, e.Err)
}

func (e *BridgeError) Unwrap() error { return e.Err }

// Healable reports whether an error may be recovered through the healing
// loop. Only execution and schema validation failures qualify.
func Healable(err error) bool {
	var execErr *ExecutionError
	var schemaErr *SchemaValidationError
	return errors.As(err, &execErr) || errors.As(err, &schemaErr)
}
