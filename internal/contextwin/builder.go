// Package contextwin compresses a raw process snapshot into a ranked,
// budget-limited context window for prompt injection. The mapping is
// deterministic: identical snapshot, instruction, and budget always yield
// an identical window, which the cache layer relies on for key stability.
package contextwin

import (
	"fmt"
	"sort"
	"strings"

	"dirge/internal/logging"
	"dirge/internal/types"
)

// moduleListLimit caps how many modules are rendered in the ambient tier.
const moduleListLimit = 10

// Builder assigns each candidate fragment a priority tier and fills the
// token budget in tier order. Tier 1 (status, registers, current-frame
// disassembly) is included whenever it fits at all; if even tier 1
// overflows, the disassembly is truncated around the program counter
// rather than dropped.
type Builder struct {
	counter *TokenCounter
}

// NewBuilder creates a context builder.
func NewBuilder() *Builder {
	return &Builder{counter: NewTokenCounter()}
}

// Build compresses snapshot into a window for instruction under tokenBudget.
// It never fails: when the process has no live thread/frame the window
// degrades to process-level facts only.
func (b *Builder) Build(snapshot *types.ProcessSnapshot, instruction string, tokenBudget int) *Window {
	w := &Window{
		Snapshot:    snapshot,
		Instruction: instruction,
		Budget:      tokenBudget,
	}

	if !snapshot.Stopped() {
		b.buildDegraded(w)
		logging.ContextDebug("Degraded window: %d fragments, %d tokens", len(w.Fragments), w.Tokens())
		return w
	}

	w.MatchedSymbols = matchSymbols(instruction, snapshot.Symbols)

	tier1 := b.tierOneFragments(snapshot)
	rest := b.lowerTierFragments(snapshot, w.MatchedSymbols)

	used := 0
	for _, f := range tier1 {
		used += f.Tokens
	}
	if used > tokenBudget {
		tier1 = b.shrinkTierOne(tier1, snapshot.PC, tokenBudget)
		w.Truncated = true
		used = 0
		for _, f := range tier1 {
			used += f.Tokens
		}
	}
	w.Fragments = tier1

	for _, f := range rest {
		if used+f.Tokens > tokenBudget {
			continue
		}
		w.Fragments = append(w.Fragments, f)
		used += f.Tokens
	}

	logging.ContextDebug("Built window: %d fragments, %d/%d tokens, truncated=%v",
		len(w.Fragments), used, tokenBudget, w.Truncated)
	return w
}

// buildDegraded fills a window with process-level facts only. The same
// budget fill applies as in the normal path: status is kept whole, the
// module list only when it fits.
func (b *Builder) buildDegraded(w *Window) {
	w.Degraded = true
	status := formatStatus(w.Snapshot)
	used := b.counter.CountString(status)
	w.Fragments = append(w.Fragments, Fragment{
		Kind:   FragStatus,
		Tier:   tierAlways,
		Text:   status,
		Tokens: used,
	})
	if len(w.Snapshot.Modules) > 0 {
		text := formatModules(w.Snapshot.Modules, moduleListLimit)
		tokens := b.counter.CountString(text)
		if used+tokens > w.Budget {
			return
		}
		w.Fragments = append(w.Fragments, Fragment{
			Kind:   FragModules,
			Tier:   tierAmbient,
			Text:   text,
			Tokens: tokens,
		})
	}
}

// tierOneFragments renders the fragments that are included whenever they
// fit at all.
func (b *Builder) tierOneFragments(s *types.ProcessSnapshot) []Fragment {
	frags := make([]Fragment, 0, 3)

	status := formatStatus(s)
	frags = append(frags, Fragment{
		Kind: FragStatus, Tier: tierAlways,
		Text: status, Tokens: b.counter.CountString(status),
	})

	if len(s.Registers) > 0 {
		text := formatRegisters(s.Registers)
		frags = append(frags, Fragment{
			Kind: FragRegisters, Tier: tierAlways,
			Text: text, Tokens: b.counter.CountString(text),
		})
	}

	if s.Disassembly != "" {
		text := formatDisassembly(s.Disassembly)
		frags = append(frags, Fragment{
			Kind: FragDisassembly, Tier: tierAlways,
			Text: text, Tokens: b.counter.CountString(text),
		})
	}

	return frags
}

// lowerTierFragments renders tiers 2-4 in fill order: tier ascending, then
// proximity to the PC, then a fixed kind order so the result is stable.
func (b *Builder) lowerTierFragments(s *types.ProcessSnapshot, matched []types.SymbolInfo) []Fragment {
	var frags []Fragment

	if s.StackTrace != nil {
		text := formatStack(s.StackTrace)
		frags = append(frags, Fragment{
			Kind: FragStack, Tier: tierStack,
			Text: text, Tokens: b.counter.CountString(text),
		})
	}

	for _, r := range s.MemoryRegions {
		text := formatMemoryRegion(r)
		frags = append(frags, Fragment{
			Kind: FragMemory, Tier: tierRelevant,
			Text: text, Tokens: b.counter.CountString(text),
			Proximity: regionProximity(r, s.PC),
		})
	}

	if len(matched) > 0 {
		text := formatSymbols(matched)
		frags = append(frags, Fragment{
			Kind: FragSymbols, Tier: tierRelevant,
			Text: text, Tokens: b.counter.CountString(text),
		})
	}

	if len(s.Variables) > 0 {
		text := formatVariables(s.Variables)
		frags = append(frags, Fragment{
			Kind: FragVariables, Tier: tierRelevant,
			Text: text, Tokens: b.counter.CountString(text),
		})
	}

	if len(s.Modules) > 0 {
		text := formatModules(s.Modules, moduleListLimit)
		frags = append(frags, Fragment{
			Kind: FragModules, Tier: tierAmbient,
			Text: text, Tokens: b.counter.CountString(text),
		})
	}

	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Tier != frags[j].Tier {
			return frags[i].Tier < frags[j].Tier
		}
		if frags[i].Proximity != frags[j].Proximity {
			return frags[i].Proximity < frags[j].Proximity
		}
		return kindOrder(frags[i].Kind) < kindOrder(frags[j].Kind)
	})
	return frags
}

// kindOrder fixes the intra-tier ordering for kinds with equal proximity.
func kindOrder(k FragmentKind) int {
	switch k {
	case FragStack:
		return 0
	case FragMemory:
		return 1
	case FragSymbols:
		return 2
	case FragVariables:
		return 3
	case FragModules:
		return 4
	default:
		return 5
	}
}

// regionProximity measures how far a region sits from the PC. Regions
// containing the PC score zero.
func regionProximity(r types.MemoryRegionInfo, pc uint64) uint64 {
	if pc >= r.Start && pc < r.End {
		return 0
	}
	if pc < r.Start {
		return r.Start - pc
	}
	return pc - r.End
}

// shrinkTierOne truncates the disassembly fragment around the PC until
// tier 1 fits the budget. Status and registers are kept whole; the
// disassembly is cut, never dropped.
func (b *Builder) shrinkTierOne(frags []Fragment, pc uint64, budget int) []Fragment {
	fixed := 0
	disasmIdx := -1
	for i, f := range frags {
		if f.Kind == FragDisassembly {
			disasmIdx = i
			continue
		}
		fixed += f.Tokens
	}
	if disasmIdx < 0 {
		return frags
	}

	remaining := budget - fixed
	if remaining < 0 {
		remaining = 0
	}

	truncated := truncateAroundPC(frags[disasmIdx].Text, pc, remaining, b.counter)
	frags[disasmIdx].Text = truncated
	frags[disasmIdx].Tokens = b.counter.CountString(truncated)
	return frags
}

// truncateAroundPC keeps the lines nearest the line mentioning the PC,
// expanding outward until the token budget is spent. When the PC is not
// found in the text the head of the listing is kept instead.
func truncateAroundPC(text string, pc uint64, budget int, counter *TokenCounter) string {
	lines := strings.Split(text, "\n")
	pcHex := fmt.Sprintf("0x%x", pc)

	center := -1
	for i, line := range lines {
		if containsAddress(line, pcHex) {
			center = i
			break
		}
	}
	if center < 0 {
		center = 0
	}

	kept := map[int]bool{}
	used := 0
	// add includes line i when it exists and fits; reports whether it was kept.
	add := func(i int) bool {
		if i < 0 || i >= len(lines) || kept[i] {
			return false
		}
		t := counter.CountString(lines[i]) + 1
		if used+t > budget {
			return false
		}
		kept[i] = true
		used += t
		return true
	}

	if !add(center) {
		// Budget too small for even one line: keep the PC line alone.
		return lines[center]
	}
	for radius := 1; radius < len(lines); radius++ {
		before := add(center - radius)
		after := add(center + radius)
		if !before && !after {
			break
		}
	}

	var sb strings.Builder
	wrote := false
	for i, line := range lines {
		if !kept[i] {
			continue
		}
		if wrote {
			sb.WriteString("\n")
		} else if i > 0 {
			sb.WriteString("... (truncated)\n")
		}
		sb.WriteString(line)
		wrote = true
	}
	if len(kept) < len(lines) {
		last := 0
		for i := range lines {
			if kept[i] && i > last {
				last = i
			}
		}
		if last < len(lines)-1 {
			sb.WriteString("\n... (truncated)")
		}
	}
	return sb.String()
}

// containsAddress reports whether line contains addr as a complete hex
// literal, so 0x10 does not match inside 0x100.
func containsAddress(line, addr string) bool {
	for from := 0; ; {
		i := strings.Index(line[from:], addr)
		if i < 0 {
			return false
		}
		end := from + i + len(addr)
		if end >= len(line) || !isHexDigit(line[end]) {
			return true
		}
		from = from + i + 1
	}
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// matchSymbols selects symbols relevant to the instruction. A symbol
// matches when an instruction word of three or more characters appears in
// its name, or the symbol name appears in the instruction. Results are
// sorted by name for determinism.
func matchSymbols(instruction string, symbols []types.SymbolInfo) []types.SymbolInfo {
	if len(symbols) == 0 {
		return nil
	}

	words := instructionWords(instruction)
	var matched []types.SymbolInfo
	for _, s := range symbols {
		lower := strings.ToLower(s.Name)
		for _, w := range words {
			if strings.Contains(lower, w) || strings.Contains(strings.ToLower(instruction), lower) {
				matched = append(matched, s)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return matched
}

func instructionWords(instruction string) []string {
	fields := strings.FieldsFunc(strings.ToLower(instruction), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '_')
	})
	words := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 {
			words = append(words, f)
		}
	}
	return words
}
