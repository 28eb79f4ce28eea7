package contextwin

import (
	"fmt"
	"strings"

	"dirge/internal/types"
)

// formatStatus renders the process-level facts that head every window.
func formatStatus(s *types.ProcessSnapshot) string {
	var sb strings.Builder
	if s.TargetTriple != "" {
		fmt.Fprintf(&sb, "Target: %s\n", s.TargetTriple)
		if hints := platformHints(s.TargetTriple); hints != "" {
			fmt.Fprintf(&sb, "\n--- Platform Hints ---\n%s\n", hints)
		}
	}
	fmt.Fprintf(&sb, "Process State: %s\n", s.ProcessState)
	if s.StopReason != "" {
		fmt.Fprintf(&sb, "Stop Reason: %s\n", s.StopReason)
	}
	if s.Stopped() {
		fmt.Fprintf(&sb, "PC: 0x%x", s.PC)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// platformHints returns calling-convention tips keyed on the target triple.
func platformHints(triple string) string {
	t := strings.ToLower(triple)
	switch {
	case strings.Contains(t, "arm64"), strings.Contains(t, "aarch64"):
		return "arm64 calling convention: $x0-$x7 = arguments, $x0 = return value, " +
			"$lr = return address, $fp = frame pointer."
	case strings.Contains(t, "x86_64"), strings.Contains(t, "x86-64"):
		return "x86_64 calling convention: $rdi, $rsi, $rdx, $rcx, $r8, $r9 = arguments, " +
			"$rax = return value, $rbp = frame pointer."
	case strings.Contains(t, "i386"), strings.Contains(t, "x86"):
		return "x86 (32-bit) calling convention: arguments on stack, " +
			"$eax = return value, $ebp = frame pointer."
	}
	return ""
}

func formatRegisters(regs []types.RegisterInfo) string {
	var sb strings.Builder
	sb.WriteString("--- Registers ---")
	for _, r := range regs {
		fmt.Fprintf(&sb, "\n  %s = 0x%x", r.Name, r.Value)
	}
	return sb.String()
}

func formatDisassembly(disasm string) string {
	return "--- Disassembly ---\n" + disasm
}

func formatStack(st *types.StackTrace) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Stack Trace (thread %d) ---", st.ThreadID)
	for _, f := range st.Frames {
		loc := f.FunctionName
		if loc == "" {
			loc = fmt.Sprintf("0x%x", f.PC)
		}
		fmt.Fprintf(&sb, "\n  #%d: %s", f.Index, loc)
		if f.ModuleName != "" {
			fmt.Fprintf(&sb, " [%s]", f.ModuleName)
		}
		if f.File != "" && f.Line > 0 {
			fmt.Fprintf(&sb, " at %s:%d", f.File, f.Line)
		}
	}
	return sb.String()
}

func formatMemoryRegion(r types.MemoryRegionInfo) string {
	perms := []byte("---")
	if r.Readable {
		perms[0] = 'r'
	}
	if r.Writable {
		perms[1] = 'w'
	}
	if r.Executable {
		perms[2] = 'x'
	}
	name := r.Name
	if name == "" {
		name = "(anonymous)"
	}
	return fmt.Sprintf("--- Memory Region ---\n  0x%x-0x%x %s %s", r.Start, r.End, perms, name)
}

func formatSymbols(symbols []types.SymbolInfo) string {
	var sb strings.Builder
	sb.WriteString("--- Matching Symbols ---")
	for _, s := range symbols {
		fmt.Fprintf(&sb, "\n  %s @ 0x%x", s.Name, s.Address)
		if s.Module != "" {
			fmt.Fprintf(&sb, " [%s]", s.Module)
		}
	}
	return sb.String()
}

func formatVariables(vars []types.Variable) string {
	var sb strings.Builder
	sb.WriteString("--- Variables ---")
	writeVariables(&sb, vars, 2)
	return sb.String()
}

func writeVariables(sb *strings.Builder, vars []types.Variable, indent int) {
	prefix := strings.Repeat(" ", indent)
	for _, v := range vars {
		fmt.Fprintf(sb, "\n%s%s: %s = %s", prefix, v.Name, v.Type, v.Value)
		if len(v.Children) > 0 {
			writeVariables(sb, v.Children, indent+4)
		}
	}
}

func formatModules(modules []types.ModuleDetail, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Modules (%d) ---", len(modules))
	for i, m := range modules {
		if i >= limit {
			fmt.Fprintf(&sb, "\n  ... (%d more)", len(modules)-limit)
			break
		}
		fmt.Fprintf(&sb, "\n  %s @ 0x%x", m.Name, m.BaseAddress)
	}
	return sb.String()
}
