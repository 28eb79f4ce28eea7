// Package bridge defines the narrow surface the core consumes from the
// debugger bridge. The bridge owns everything debugger-specific: reading raw
// process state and running generated code in a persistent, session-scoped
// namespace. Its internals are not part of this module.
package bridge

import (
	"context"

	"dirge/internal/types"
)

// ExecResult is the outcome of running generated code in the session
// namespace. Raised is the error text of an exception raised by the code
// itself; it is empty on success. A non-empty Raised is healing-eligible,
// while a transport-level failure is returned as the error value instead.
type ExecResult struct {
	Output string
	Raised string
}

// Succeeded reports whether the code ran without raising.
func (r ExecResult) Succeeded() bool { return r.Raised == "" }

// Bridge executes primitive commands and reads raw process state.
//
// Names bound by one Execute call remain visible to later calls in the same
// session: the namespace is shared mutable state, so mutating calls on one
// session must be externally serialized.
type Bridge interface {
	// CaptureSnapshot reads the full debuggee state at this instant.
	// Returns a BridgeError-wrapped failure when no target is attached.
	CaptureSnapshot(ctx context.Context) (*types.ProcessSnapshot, error)

	// Execute runs generated code or a primitive command against the
	// persistent namespace. The error return is reserved for bridge-level
	// failures (lost connection, no running target); failures raised by the
	// code itself come back in ExecResult.Raised.
	Execute(ctx context.Context, code string) (ExecResult, error)
}
