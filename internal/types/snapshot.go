package types

// RegisterInfo is a single CPU register captured from a stopped frame.
type RegisterInfo struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
	Size  int    `json:"size"`
}

// FrameInfo is a single stack frame.
type FrameInfo struct {
	Index        int    `json:"index"`
	FunctionName string `json:"function_name,omitempty"`
	ModuleName   string `json:"module_name,omitempty"`
	PC           uint64 `json:"pc"`
	File         string `json:"file,omitempty"`
	Line         int    `json:"line,omitempty"`
}

// StackTrace is the frame list for one thread.
type StackTrace struct {
	Frames     []FrameInfo `json:"frames"`
	ThreadID   int64       `json:"thread_id"`
	ThreadName string      `json:"thread_name,omitempty"`
}

// MemoryRegionInfo describes one mapped memory region.
type MemoryRegionInfo struct {
	Start      uint64 `json:"start"`
	End        uint64 `json:"end"`
	Readable   bool   `json:"readable"`
	Writable   bool   `json:"writable"`
	Executable bool   `json:"executable"`
	Name       string `json:"name,omitempty"`
}

// ModuleDetail is a loaded module / shared library.
type ModuleDetail struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	UUID        string `json:"uuid,omitempty"`
	BaseAddress uint64 `json:"base_address"`
}

// Variable is a local variable, with recursive struct expansion.
type Variable struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Value    string     `json:"value"`
	Children []Variable `json:"children,omitempty"`
}

// SymbolInfo is one entry from the debuggee's symbol table.
type SymbolInfo struct {
	Name    string `json:"name"`
	Address uint64 `json:"address"`
	Module  string `json:"module,omitempty"`
}

// ProcessSnapshot is an immutable capture of debuggee state at one instant.
// Produced once per request by the debugger bridge; everything downstream
// treats it as read-only.
type ProcessSnapshot struct {
	Registers     []RegisterInfo     `json:"registers"`
	StackTrace    *StackTrace        `json:"stack_trace,omitempty"`
	MemoryRegions []MemoryRegionInfo `json:"memory_regions,omitempty"`
	Modules       []ModuleDetail     `json:"modules,omitempty"`
	Disassembly   string             `json:"disassembly,omitempty"`
	Variables     []Variable         `json:"variables,omitempty"`
	Symbols       []SymbolInfo       `json:"symbols,omitempty"`
	ProcessState  string             `json:"process_state"`
	StopReason    string             `json:"stop_reason,omitempty"`
	PC            uint64             `json:"pc,omitempty"`
	TargetTriple  string             `json:"target_triple,omitempty"`
}

// Stopped reports whether the snapshot was taken with a live stopped thread.
// When false the process has no selected frame and only process-level facts
// (modules, state) are meaningful.
func (s *ProcessSnapshot) Stopped() bool {
	return s.StackTrace != nil && len(s.StackTrace.Frames) > 0
}

// MainBase returns the lowest non-zero module base address, used as the
// reference point for load-offset normalization. Zero when no module
// reports a base.
func (s *ProcessSnapshot) MainBase() uint64 {
	var base uint64
	for _, m := range s.Modules {
		if m.BaseAddress == 0 {
			continue
		}
		if base == 0 || m.BaseAddress < base {
			base = m.BaseAddress
		}
	}
	return base
}
