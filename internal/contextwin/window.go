package contextwin

import (
	"strings"

	"dirge/internal/types"
)

// FragmentKind identifies what part of the snapshot a fragment renders.
type FragmentKind string

const (
	FragStatus      FragmentKind = "status"
	FragRegisters   FragmentKind = "registers"
	FragDisassembly FragmentKind = "disassembly"
	FragStack       FragmentKind = "stack"
	FragMemory      FragmentKind = "memory"
	FragSymbols     FragmentKind = "symbols"
	FragVariables   FragmentKind = "variables"
	FragModules     FragmentKind = "modules"
)

// Tier assignments. Tier 1 is included whenever it fits at all; remaining
// tiers fill the budget in priority order.
const (
	tierAlways   = 1 // status, registers, current-frame disassembly
	tierStack    = 2
	tierRelevant = 3 // touched memory, matching symbols, local variables
	tierAmbient  = 4 // modules
)

// Fragment is one ranked, rendered piece of a context window.
type Fragment struct {
	Kind   FragmentKind
	Tier   int
	Text   string
	Tokens int
	// Proximity is the distance from the program counter, used to break
	// ties inside a tier. Lower is closer.
	Proximity uint64
}

// Window is a ranked, size-bounded subset of a snapshot plus any matched
// symbol excerpt. Rebuilt fresh per instruction; never persisted on its own.
type Window struct {
	Snapshot       *types.ProcessSnapshot
	Instruction    string
	Fragments      []Fragment
	MatchedSymbols []types.SymbolInfo
	Budget         int
	// Degraded means no live thread/frame existed, so the window holds
	// process-level facts only.
	Degraded bool
	// Truncated means tier 1 overflowed the budget and the disassembly was
	// cut down around the program counter.
	Truncated bool
}

// Text renders the window for prompt injection.
func (w *Window) Text() string {
	parts := make([]string, 0, len(w.Fragments))
	for _, f := range w.Fragments {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Fragment returns the fragment of the given kind, if included.
func (w *Window) Fragment(kind FragmentKind) (Fragment, bool) {
	for _, f := range w.Fragments {
		if f.Kind == kind {
			return f, true
		}
	}
	return Fragment{}, false
}

// Tokens is the estimated token footprint of the rendered window.
func (w *Window) Tokens() int {
	total := 0
	for _, f := range w.Fragments {
		total += f.Tokens
	}
	return total
}
