// Package primitives is the public façade over the translate engine: the
// three verbs callers and the agent scheduler compose debugging work from.
package primitives

import (
	"context"
	"fmt"

	"dirge/internal/logging"
	"dirge/internal/schema"
	"dirge/internal/translate"
	"dirge/internal/types"
)

// Primitives exposes act, extract, and observe over one engine. Calls on
// one Primitives value must not overlap; the underlying session namespace
// is shared mutable state.
type Primitives struct {
	engine *translate.Engine
}

// New wraps an engine in the primitive façade.
func New(engine *translate.Engine) *Primitives {
	return &Primitives{engine: engine}
}

// Act performs a state-changing instruction against the live target. A
// translation that exhausts its healing budget comes back as a structured
// failure describing what was attempted, never a bare fault; only bridge
// and provider infrastructure errors surface as errors.
func (p *Primitives) Act(ctx context.Context, instruction string) (*types.ActResult, error) {
	out, err := p.engine.Run(ctx, instruction, translate.KindAct, nil)
	if err != nil {
		if types.Healable(err) {
			logging.TranslateDebug("act %q failed after healing: %v", instruction, err)
			return failedActResult(out, err), nil
		}
		return nil, err
	}

	return &types.ActResult{
		Success: true,
		Message: out.Reasoning,
		Actions: outcomeActions(out),
		Output:  out.Output,
	}, nil
}

// failedActResult keeps the attempted actions, captured output, and the
// attempt history visible in an exhausted act.
func failedActResult(out *translate.Outcome, fault error) *types.ActResult {
	res := &types.ActResult{Success: false, Message: fault.Error()}
	if out == nil {
		return res
	}
	res.Actions = outcomeActions(out)
	res.Output = out.Output
	if out.Healing != nil && len(out.Healing.Attempts) > 0 {
		res.Message = fmt.Sprintf("%s (gave up after %d attempts)", fault.Error(), len(out.Healing.Attempts))
	}
	return res
}

// outcomeActions normalizes an outcome into its action list, falling back
// to a single action built from the code that ran.
func outcomeActions(out *translate.Outcome) []types.Action {
	if len(out.Actions) > 0 {
		return out.Actions
	}
	if out.Code != "" {
		return []types.Action{{Code: out.Code, Description: out.Reasoning}}
	}
	return nil
}

// Extract reads structured data from the target according to shape. The
// returned record has passed shape validation; a record that never
// validated within the healing budget is returned as the validation error.
func (p *Primitives) Extract(ctx context.Context, instruction string, shape schema.Shape) (map[string]any, error) {
	out, err := p.engine.Run(ctx, instruction, translate.KindExtract, &shape)
	if err != nil {
		return nil, err
	}
	return out.Record, nil
}

// Observe answers a question about current state without executing
// anything. Suggested actions in the result are proposals only. An empty
// instruction asks for a general state summary.
func (p *Primitives) Observe(ctx context.Context, instruction string) (*types.ObserveResult, error) {
	if instruction == "" {
		instruction = "describe the current state of the target"
	}
	out, err := p.engine.Run(ctx, instruction, translate.KindObserve, nil)
	if err != nil {
		return nil, err
	}
	return &types.ObserveResult{
		Description: out.Description,
		Actions:     out.Actions,
	}, nil
}
