package types

import (
	"errors"
	"testing"
)

func TestSnapshotStopped(t *testing.T) {
	tests := []struct {
		name string
		s    ProcessSnapshot
		want bool
	}{
		{"nil stack", ProcessSnapshot{ProcessState: "stopped"}, false},
		{"empty stack", ProcessSnapshot{StackTrace: &StackTrace{}}, false},
		{"with frames", ProcessSnapshot{StackTrace: &StackTrace{Frames: []FrameInfo{{Index: 0}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Stopped(); got != tt.want {
				t.Errorf("Stopped() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotMainBase(t *testing.T) {
	tests := []struct {
		name    string
		modules []ModuleDetail
		want    uint64
	}{
		{"no modules", nil, 0},
		{"single", []ModuleDetail{{Name: "a", BaseAddress: 0x100000000}}, 0x100000000},
		{"lowest wins", []ModuleDetail{
			{Name: "libc", BaseAddress: 0x180000000},
			{Name: "main", BaseAddress: 0x100000000},
		}, 0x100000000},
		{"zero base ignored", []ModuleDetail{
			{Name: "vdso", BaseAddress: 0},
			{Name: "main", BaseAddress: 0x400000},
		}, 0x400000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ProcessSnapshot{Modules: tt.modules}
			if got := s.MainBase(); got != tt.want {
				t.Errorf("MainBase() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestHealable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"execution error", &ExecutionError{Detail: "boom"}, true},
		{"schema error", &SchemaValidationError{Field: "total", Reason: "missing"}, true},
		{"bridge error", &BridgeError{Op: "execute", Err: errors.New("gone")}, false},
		{"provider error", &ProviderError{Op: "generate", Err: errors.New("quota")}, false},
		{"plain error", errors.New("whatever"), false},
		{"wrapped execution error", &ProviderError{Op: "x", Err: &ExecutionError{Detail: "inner"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Healable(tt.err); got != tt.want {
				t.Errorf("Healable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	e := &SchemaValidationError{Field: "total", Reason: "required field missing"}
	if got := e.Error(); got != `schema validation failed: field "total": required field missing` {
		t.Errorf("unexpected message: %q", got)
	}

	b := &BridgeError{Op: "snapshot", Err: errors.New("no target")}
	if !errors.Is(b, b.Err) && b.Unwrap() == nil {
		t.Error("BridgeError must unwrap its cause")
	}
}
