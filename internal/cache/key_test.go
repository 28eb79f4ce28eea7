package cache

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirge/internal/contextwin"
	"dirge/internal/types"
)

// snapshotAt builds a snapshot loaded at the given base, so shifting the
// base models a re-run under a different ASLR slide.
func snapshotAt(base uint64) *types.ProcessSnapshot {
	return &types.ProcessSnapshot{
		ProcessState: "stopped",
		StopReason:   "breakpoint 1.1",
		PC:           base + 0x3f50,
		TargetTriple: "arm64-apple-macosx",
		Registers: []types.RegisterInfo{
			{Name: "x0", Value: base + 0x3f00, Size: 8},
			{Name: "x1", Value: 0x2a, Size: 8},
		},
		StackTrace: &types.StackTrace{
			ThreadID: 1,
			Frames: []types.FrameInfo{
				{Index: 0, PC: base + 0x3f50, FunctionName: "process_order", ModuleName: "shop"},
				{Index: 1, PC: base + 0x3e10, FunctionName: "main", ModuleName: "shop"},
			},
		},
		Disassembly: fmt.Sprintf(
			"0x%x: bl 0x%x\n0x%x: cmp x0, #0",
			base+0x3f4c, base+0x3e00, base+0x3f50),
		Modules: []types.ModuleDetail{
			{Name: "shop", Path: "/bin/shop", BaseAddress: base},
			{Name: "libc", Path: "/lib/libc", BaseAddress: base + 0x80000000},
		},
		Symbols: []types.SymbolInfo{
			{Name: "process_order", Address: base + 0x3f00, Module: "shop"},
		},
	}
}

func windowFor(t *testing.T, s *types.ProcessSnapshot, instruction string) *contextwin.Window {
	t.Helper()
	w := contextwin.NewBuilder().Build(s, instruction, 4096)
	require.False(t, w.Degraded)
	return w
}

func TestDeriveKeyDeterministic(t *testing.T) {
	w1 := windowFor(t, snapshotAt(0x100000000), "show the order")
	w2 := windowFor(t, snapshotAt(0x100000000), "show the order")

	k1 := DeriveKey("act", "show the order", Canonicalize(w1))
	k2 := DeriveKey("act", "show the order", Canonicalize(w2))
	assert.Equal(t, k1, k2)
	assert.Len(t, string(k1), keyLen)
}

func TestDeriveKeyIndependentOfLoadOffset(t *testing.T) {
	// Same program, same stop, different ASLR slide.
	w1 := windowFor(t, snapshotAt(0x100000000), "show the order")
	w2 := windowFor(t, snapshotAt(0x104ac0000), "show the order")

	c1 := Canonicalize(w1)
	c2 := Canonicalize(w2)
	assert.Equal(t, c1, c2, "canonical form must not depend on the load offset")

	k1 := DeriveKey("act", "show the order", c1)
	k2 := DeriveKey("act", "show the order", c2)
	assert.Equal(t, k1, k2)
}

func TestDeriveKeySensitivity(t *testing.T) {
	base := Canonicalize(windowFor(t, snapshotAt(0x100000000), "show the order"))

	t.Run("instruction changes key", func(t *testing.T) {
		k1 := DeriveKey("act", "show the order", base)
		k2 := DeriveKey("act", "show the basket", base)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("kind changes key", func(t *testing.T) {
		k1 := DeriveKey("act", "show the order", base)
		k2 := DeriveKey("extract", "show the order", base)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("state change changes key", func(t *testing.T) {
		s := snapshotAt(0x100000000)
		s.Registers[1].Value = 0x2b
		other := Canonicalize(windowFor(t, s, "show the order"))
		assert.NotEqual(t, DeriveKey("act", "show the order", base), DeriveKey("act", "show the order", other))
	})

	t.Run("shape fingerprint changes key", func(t *testing.T) {
		k1 := DeriveKey("extract", "show the order", base, "fp-a")
		k2 := DeriveKey("extract", "show the order", base, "fp-b")
		assert.NotEqual(t, k1, k2)
	})

	t.Run("surrounding whitespace ignored", func(t *testing.T) {
		k1 := DeriveKey("act", "show the order", base)
		k2 := DeriveKey("act", "  show the order \n", base)
		assert.Equal(t, k1, k2)
	})
}

func TestCanonicalizeHasNoRawAddresses(t *testing.T) {
	base := uint64(0x100000000)
	c := Canonicalize(windowFor(t, snapshotAt(base), "show the order"))
	assert.NotContains(t, c, fmt.Sprintf("%x", base+0x3f50), "PC must not leak into the canonical form")
	assert.NotContains(t, c, fmt.Sprintf("0x%x", base))
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		base uint64
		want string
	}{
		{"rewrites high address", "bl 0x100003e00", 0x100000000, "bl +0x3e00"},
		{"keeps small constant", "cmp x0, 0x2a", 0x100000000, "cmp x0, 0x2a"},
		{"collapses whitespace", "mov   x0,    x1", 0, "mov x0, x1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeText(tt.in, tt.base)
			if got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeWindowOnly(t *testing.T) {
	// Fragments absent from the window must not contribute to the key.
	s := snapshotAt(0x100000000)
	w := windowFor(t, s, "show the order")
	c := Canonicalize(w)
	assert.True(t, strings.HasPrefix(c, "state:stopped|breakpoint 1.1"))
}
