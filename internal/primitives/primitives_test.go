package primitives

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirge/internal/bridge"
	"dirge/internal/cache"
	"dirge/internal/provider"
	"dirge/internal/translate"
	"dirge/internal/types"
)

type fakeBridge struct {
	execFn    func(code string) (bridge.ExecResult, error)
	execCalls int
}

func (b *fakeBridge) CaptureSnapshot(ctx context.Context) (*types.ProcessSnapshot, error) {
	return &types.ProcessSnapshot{
		ProcessState: "stopped",
		StopReason:   "breakpoint 1.1",
		PC:           0x100003f50,
		Registers:    []types.RegisterInfo{{Name: "x0", Value: 0x2a, Size: 8}},
		StackTrace: &types.StackTrace{
			ThreadID: 1,
			Frames:   []types.FrameInfo{{Index: 0, PC: 0x100003f50, FunctionName: "main"}},
		},
		Disassembly: "0x100003f50: cmp x0, #0",
		Modules:     []types.ModuleDetail{{Name: "shop", BaseAddress: 0x100000000}},
	}, nil
}

func (b *fakeBridge) Execute(ctx context.Context, code string) (bridge.ExecResult, error) {
	b.execCalls++
	if b.execFn != nil {
		return b.execFn(code)
	}
	return bridge.ExecResult{Output: "ok"}, nil
}

type fakeProvider struct {
	responses []provider.Response
	calls     int
}

func (p *fakeProvider) Generate(ctx context.Context, prompt string) (provider.Response, error) {
	i := p.calls
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	p.calls++
	return p.responses[i], nil
}

func newTestPrimitives(t *testing.T, b *fakeBridge, p *fakeProvider, maxRetries int) *Primitives {
	t.Helper()
	store, err := cache.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(translate.NewEngine(b, p, cache.NewWithStore(store), translate.Options{
		TokenBudget:    4096,
		HealingEnabled: true,
		MaxRetries:     maxRetries,
	}))
}

func TestActSuccessCarriesActions(t *testing.T) {
	b := &fakeBridge{}
	p := &fakeProvider{responses: []provider.Response{
		{Code: "bp.Enable()", Reasoning: "enable it"},
	}}

	res, err := newTestPrimitives(t, b, p, 2).Act(context.Background(), "enable the breakpoint")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, "bp.Enable()", res.Actions[0].Code)
	assert.Equal(t, "ok", res.Output)
}

func TestActFailureDescribesWhatWasAttempted(t *testing.T) {
	b := &fakeBridge{execFn: func(code string) (bridge.ExecResult, error) {
		return bridge.ExecResult{Output: "partial write done", Raised: "AttributeError: nope"}, nil
	}}
	p := &fakeProvider{responses: []provider.Response{
		{Code: "poke_target()", Reasoning: "poke it"},
	}}

	res, err := newTestPrimitives(t, b, p, 2).Act(context.Background(), "poke")
	require.NoError(t, err, "an exhausted healing budget is a structured failure, not an error")
	assert.False(t, res.Success)

	// The failure names the code that ran, its captured output, and how
	// many attempts were burned, not just the final fault text.
	require.Len(t, res.Actions, 1)
	assert.Equal(t, "poke_target()", res.Actions[0].Code)
	assert.Equal(t, "partial write done", res.Output)
	assert.Contains(t, res.Message, "AttributeError: nope")
	assert.Contains(t, res.Message, "3 attempts")
}

func TestActFailureWithoutCode(t *testing.T) {
	b := &fakeBridge{}
	p := &fakeProvider{responses: []provider.Response{
		{Reasoning: "no idea"},
	}}

	res, err := newTestPrimitives(t, b, p, 1).Act(context.Background(), "do the impossible")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.Actions)
	assert.Contains(t, res.Message, "no code")
}

func TestObserveDefaultsInstruction(t *testing.T) {
	b := &fakeBridge{}
	p := &fakeProvider{responses: []provider.Response{
		{Description: "stopped in main"},
	}}

	obs, err := newTestPrimitives(t, b, p, 2).Observe(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, b.execCalls)
	assert.Equal(t, "stopped in main", obs.Description)
}
