// Package cache is the content-addressed store mapping (instruction,
// context window) pairs to prior translation results. Keys are derived from
// canonicalized window content, never raw addresses, so entries survive
// process restarts and ASLR re-randomization.
package cache

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"dirge/internal/contextwin"
	"dirge/internal/types"
)

var hexLiteral = regexp.MustCompile(`0x[0-9a-fA-F]+`)

// Canonicalize renders the meaningful content of a window in a stable,
// address-free form. Register values, frame PCs, and hex literals inside
// disassembly and variable text are rewritten relative to the lowest module
// base, so two snapshots differing only by a uniform load offset
// canonicalize identically. Any change to the canonicalized content
// naturally produces a different key downstream.
func Canonicalize(w *contextwin.Window) string {
	s := w.Snapshot
	base := s.MainBase()

	var sb strings.Builder
	fmt.Fprintf(&sb, "state:%s|%s\n", s.ProcessState, s.StopReason)

	if _, ok := w.Fragment(contextwin.FragRegisters); ok {
		pairs := make([]string, 0, len(s.Registers))
		for _, r := range s.Registers {
			pairs = append(pairs, r.Name+"="+canonAddr(r.Value, base))
		}
		sort.Strings(pairs)
		fmt.Fprintf(&sb, "registers:%s\n", strings.Join(pairs, ","))
	}

	if frag, ok := w.Fragment(contextwin.FragDisassembly); ok {
		fmt.Fprintf(&sb, "disasm:%s\n", normalizeText(frag.Text, base))
	}

	if _, ok := w.Fragment(contextwin.FragStack); ok && s.StackTrace != nil {
		frames := make([]string, 0, len(s.StackTrace.Frames))
		for _, f := range s.StackTrace.Frames {
			// Symbol names instead of addresses; unnamed frames fall back to
			// a base-relative location.
			name := f.FunctionName
			if name == "" {
				name = canonAddr(f.PC, base)
			}
			if f.ModuleName != "" {
				name += "@" + f.ModuleName
			}
			frames = append(frames, name)
		}
		fmt.Fprintf(&sb, "stack:%s\n", strings.Join(frames, ";"))
	}

	if len(w.MatchedSymbols) > 0 {
		names := make([]string, 0, len(w.MatchedSymbols))
		for _, sym := range w.MatchedSymbols {
			names = append(names, sym.Name)
		}
		sort.Strings(names)
		fmt.Fprintf(&sb, "symbols:%s\n", strings.Join(names, ","))
	}

	if _, ok := w.Fragment(contextwin.FragMemory); ok {
		regions := make([]string, 0, len(s.MemoryRegions))
		for _, r := range s.MemoryRegions {
			perms := ""
			if r.Readable {
				perms += "r"
			}
			if r.Writable {
				perms += "w"
			}
			if r.Executable {
				perms += "x"
			}
			regions = append(regions, fmt.Sprintf("%s:%s:%s", r.Name, perms, canonAddr(r.End-r.Start, 0)))
		}
		sort.Strings(regions)
		fmt.Fprintf(&sb, "memory:%s\n", strings.Join(regions, ";"))
	}

	if _, ok := w.Fragment(contextwin.FragVariables); ok {
		var vars []string
		flattenVariables("", s.Variables, base, &vars)
		fmt.Fprintf(&sb, "vars:%s\n", strings.Join(vars, ";"))
	}

	if _, ok := w.Fragment(contextwin.FragModules); ok {
		names := make([]string, 0, len(s.Modules))
		for _, m := range s.Modules {
			names = append(names, m.Name)
		}
		sort.Strings(names)
		fmt.Fprintf(&sb, "modules:%s\n", strings.Join(names, ","))
	}

	return sb.String()
}

// canonAddr rewrites an address relative to the main module base. Values
// below the base (small constants, flags) are kept verbatim: they do not
// shift under a load-offset change.
func canonAddr(a, base uint64) string {
	if base > 0 && a >= base {
		return fmt.Sprintf("+0x%x", a-base)
	}
	return fmt.Sprintf("0x%x", a)
}

// normalizeText canonicalizes hex literals and collapses whitespace runs so
// formatting differences cannot split keys.
func normalizeText(text string, base uint64) string {
	normalized := hexLiteral.ReplaceAllStringFunc(text, func(m string) string {
		v, err := strconv.ParseUint(m[2:], 16, 64)
		if err != nil {
			return m
		}
		return canonAddr(v, base)
	})

	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func flattenVariables(prefix string, vars []types.Variable, base uint64, out *[]string) {
	for _, v := range vars {
		name := v.Name
		if prefix != "" {
			name = prefix + "." + v.Name
		}
		*out = append(*out, fmt.Sprintf("%s:%s=%s", name, v.Type, normalizeText(v.Value, base)))
		if len(v.Children) > 0 {
			flattenVariables(name, v.Children, base, out)
		}
	}
}
