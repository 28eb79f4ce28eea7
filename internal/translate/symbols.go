package translate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"dirge/internal/types"
)

// similarityThreshold is the minimum ratio for a fuzzy symbol match.
const similarityThreshold = 0.7

// missingSymbolPatterns match the fault texts debugger backends emit when a
// named symbol cannot be resolved.
var missingSymbolPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)symbol ['"]([A-Za-z_][A-Za-z0-9_:]*)['"] not found`),
	regexp.MustCompile(`(?i)unable to resolve ['"]?([A-Za-z_][A-Za-z0-9_:]*)['"]?`),
	regexp.MustCompile(`name '([^']+)' is not defined`),
	regexp.MustCompile(`(?i)no symbol ['"]?([A-Za-z_][A-Za-z0-9_:]*)['"]?`),
}

// SymbolResolver fuzzy-matches names against the target's symbol table, so
// a stale or slightly wrong symbol name in an instruction can still be
// bound to the real one.
type SymbolResolver struct {
	symbols []types.SymbolInfo
}

// NewSymbolResolver creates a resolver over the snapshot's symbol table.
func NewSymbolResolver(symbols []types.SymbolInfo) *SymbolResolver {
	return &SymbolResolver{symbols: symbols}
}

// Resolve finds the known symbol closest to name. Exact matches win;
// otherwise the highest-similarity candidate above the threshold is
// returned. Ties break alphabetically for determinism.
func (r *SymbolResolver) Resolve(name string) (types.SymbolInfo, float64, bool) {
	var best types.SymbolInfo
	bestScore := 0.0

	candidates := make([]types.SymbolInfo, len(r.symbols))
	copy(candidates, r.symbols)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	for _, s := range candidates {
		if s.Name == name {
			return s, 1.0, true
		}
		if score := similarity(name, s.Name); score > bestScore {
			best = s
			bestScore = score
		}
	}
	if bestScore >= similarityThreshold {
		return best, bestScore, true
	}
	return types.SymbolInfo{}, bestScore, false
}

// missingSymbol pulls the unresolvable name out of a fault text, if any.
func missingSymbol(faultText string) string {
	for _, re := range missingSymbolPatterns {
		if m := re.FindStringSubmatch(faultText); m != nil {
			return m[1]
		}
	}
	return ""
}

// symbolHint turns a fault into a concrete suggestion for the healing
// prompt, or "" when the fault is not about a missing symbol.
func symbolHint(faultText string, resolver *SymbolResolver) string {
	name := missingSymbol(faultText)
	if name == "" || resolver == nil {
		return ""
	}
	match, score, ok := resolver.Resolve(name)
	if !ok || match.Name == name {
		return ""
	}
	return fmt.Sprintf("symbol %q does not exist; the closest known symbol is %q (similarity %.2f). Use that instead.",
		name, match.Name, score)
}

// similarity is a normalized edit-distance ratio in [0, 1], case-insensitive.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(editDistance(a, b))/float64(longest)
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
