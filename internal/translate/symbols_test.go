package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dirge/internal/types"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"process_order", "process_order", 1.0, 1.0},
		{"process_order_v1", "process_order_v2", 0.9, 1.0},
		{"ProcessOrder", "process_order", 0.7, 1.0},
		{"malloc", "free", 0.0, 0.4},
		{"", "", 1.0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			got := similarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("similarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestResolverExactMatch(t *testing.T) {
	r := NewSymbolResolver([]types.SymbolInfo{
		{Name: "process_order", Address: 0x1000},
		{Name: "process_order_fast", Address: 0x2000},
	})

	match, score, ok := r.Resolve("process_order")
	assert.True(t, ok)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, uint64(0x1000), match.Address)
}

func TestResolverFuzzyMatch(t *testing.T) {
	r := NewSymbolResolver([]types.SymbolInfo{
		{Name: "process_order_v2", Address: 0x1000},
		{Name: "main", Address: 0x2000},
	})

	match, score, ok := r.Resolve("process_order_v1")
	assert.True(t, ok)
	assert.Equal(t, "process_order_v2", match.Name)
	assert.GreaterOrEqual(t, score, similarityThreshold)
}

func TestResolverNoMatchBelowThreshold(t *testing.T) {
	r := NewSymbolResolver([]types.SymbolInfo{
		{Name: "main", Address: 0x2000},
	})

	_, _, ok := r.Resolve("completely_unrelated_name")
	assert.False(t, ok)
}

func TestMissingSymbol(t *testing.T) {
	tests := []struct {
		name  string
		fault string
		want  string
	}{
		{"lldb style", "symbol 'process_order' not found", "process_order"},
		{"resolve style", "Unable to resolve 'frobnicate'", "frobnicate"},
		{"name error", "NameError: name 'counter' is not defined", "counter"},
		{"no symbol", "no symbol 'vtable_dump'", "vtable_dump"},
		{"unrelated fault", "TypeError: wrong arity", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := missingSymbol(tt.fault); got != tt.want {
				t.Errorf("missingSymbol(%q) = %q, want %q", tt.fault, got, tt.want)
			}
		})
	}
}

func TestSymbolHint(t *testing.T) {
	r := NewSymbolResolver([]types.SymbolInfo{{Name: "process_order_v2"}})

	hint := symbolHint("symbol 'process_order_v1' not found", r)
	assert.Contains(t, hint, "process_order_v2")

	assert.Empty(t, symbolHint("TypeError: wrong arity", r))
	assert.Empty(t, symbolHint("symbol 'zzzzz' not found", r))
}
