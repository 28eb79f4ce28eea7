// Package agent runs autonomous multi-step debugging toward a goal,
// composing the act and observe primitives under step and time budgets.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dirge/internal/events"
	"dirge/internal/logging"
	"dirge/internal/primitives"
	"dirge/internal/types"
)

// State is the terminal (or in-flight) status of an agent run.
type State string

const (
	StateRunning          State = "running"
	StateCompleted        State = "completed"
	StateStepLimitReached State = "step_limit_reached"
	StateTimedOut         State = "timed_out"
	StateFailed           State = "failed"
)

// doneMarker is what the planner emits when it judges the goal met.
const doneMarker = "GOAL COMPLETE"

// stallWindow is how many identical consecutive observations count as a
// stalled run.
const stallWindow = 3

// Run is the immutable record of one agent run. Steps are ordered and
// numbered strictly from 1.
type Run struct {
	ID      string
	Goal    string
	State   State
	Steps   []types.AgentStep
	Summary string
	// FailureReason is set when State is StateFailed.
	FailureReason string
	Elapsed       time.Duration
}

// Options bound one run. Zero values fall back to the scheduler defaults.
type Options struct {
	MaxSteps int
	Timeout  time.Duration
	Strategy Strategy
	// Terminate overrides goal-completion detection. When nil the planner's
	// done marker decides.
	Terminate func(observation string) bool
}

// Scheduler drives agent runs over the primitive façade. Budgets are
// enforced cooperatively: checks happen between steps, and a step in flight
// is never interrupted mid-execution.
type Scheduler struct {
	prims    *primitives.Primitives
	maxSteps int
	timeout  time.Duration
	strategy Strategy
	callback events.Callback
}

// NewScheduler creates a scheduler with session-level defaults.
func NewScheduler(prims *primitives.Primitives, maxSteps int, timeout time.Duration, strategy Strategy, cb events.Callback) *Scheduler {
	return &Scheduler{
		prims:    prims,
		maxSteps: maxSteps,
		timeout:  timeout,
		strategy: strategy,
		callback: cb,
	}
}

// Execute runs the loop toward goal until completion or a budget trips.
// A failed step is recorded as an observation and the run continues; only
// infrastructure errors and a stalled planner fail the run.
func (s *Scheduler) Execute(ctx context.Context, goal string, opts Options) (*Run, error) {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = s.maxSteps
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = s.strategy
	}
	terminate := opts.Terminate
	if terminate == nil {
		terminate = func(obs string) bool { return strings.Contains(obs, doneMarker) }
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := &Run{
		ID:    uuid.New().String(),
		Goal:  goal,
		State: StateRunning,
	}
	start := time.Now()
	defer func() { run.Elapsed = time.Since(start) }()

	logging.AgentDebug("Run %s started: goal=%q max_steps=%d timeout=%s strategy=%s",
		run.ID, goal, maxSteps, timeout, strategy.Name())

	for {
		if len(run.Steps) >= maxSteps {
			run.State = StateStepLimitReached
			run.Summary = fmt.Sprintf("stopped after %d steps without completing the goal", len(run.Steps))
			return run, nil
		}
		if ctx.Err() != nil {
			run.State = StateTimedOut
			run.Summary = fmt.Sprintf("timed out after %d steps", len(run.Steps))
			return run, nil
		}

		step, err := s.step(ctx, run, strategy)
		if err != nil {
			if ctx.Err() != nil {
				run.State = StateTimedOut
				run.Summary = fmt.Sprintf("timed out after %d steps", len(run.Steps))
				return run, nil
			}
			run.State = StateFailed
			run.FailureReason = err.Error()
			return run, err
		}

		run.Steps = append(run.Steps, step)
		events.Emit(s.callback, events.Event{
			Type: events.AgentStep,
			Metadata: map[string]any{
				"run_id": run.ID, "step": step.StepNumber,
				"action": step.Action, "observation": step.Observation,
			},
		})
		logging.AgentDebug("Run %s step %d: action=%q", run.ID, step.StepNumber, step.Action)

		if terminate(step.Observation) {
			run.State = StateCompleted
			run.Summary = strings.TrimSpace(strings.ReplaceAll(step.Observation, doneMarker, ""))
			return run, nil
		}
		if stalled(run.Steps) {
			run.State = StateFailed
			run.FailureReason = fmt.Sprintf("no progress: last %d observations identical", stallWindow)
			run.Summary = run.FailureReason
			return run, nil
		}
	}
}

// step plans and performs one action. An action that fails translation
// becomes part of the observation so the planner can route around it.
func (s *Scheduler) step(ctx context.Context, run *Run, strategy Strategy) (types.AgentStep, error) {
	n := len(run.Steps) + 1

	obs, err := s.prims.Observe(ctx, planPrompt(run.Goal, strategy, run.Steps))
	if err != nil {
		return types.AgentStep{}, fmt.Errorf("planning step %d: %w", n, err)
	}

	step := types.AgentStep{
		StepNumber:  n,
		Observation: obs.Description,
	}

	if terminal(obs.Description) || len(obs.Actions) == 0 {
		step.Action = "(none)"
		return step, nil
	}

	next := obs.Actions[0]
	step.Action = next.Description
	if step.Action == "" {
		step.Action = next.Code
	}

	instruction := next.Description
	if instruction == "" {
		instruction = next.Code
	}
	result, err := s.prims.Act(ctx, instruction)
	if err != nil {
		return types.AgentStep{}, fmt.Errorf("acting on step %d: %w", n, err)
	}
	if !result.Success {
		step.Observation = fmt.Sprintf("%s\nstep action failed: %s", obs.Description, result.Message)
		return step, nil
	}

	step.Reasoning = result.Message
	if result.Output != "" {
		step.Observation = fmt.Sprintf("%s\noutput: %s", obs.Description, result.Output)
	}
	return step, nil
}

func terminal(observation string) bool {
	return strings.Contains(observation, doneMarker)
}

// stalled reports whether the last stallWindow observations are identical.
func stalled(steps []types.AgentStep) bool {
	if len(steps) < stallWindow {
		return false
	}
	last := steps[len(steps)-1].Observation
	for i := len(steps) - stallWindow; i < len(steps)-1; i++ {
		if steps[i].Observation != last {
			return false
		}
	}
	return true
}

// planPrompt renders the planning question for the next step.
func planPrompt(goal string, strategy Strategy, steps []types.AgentStep) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are working toward this goal: %s\n\n", goal)
	sb.WriteString(strategy.Directive())
	sb.WriteString("\n\n")

	if len(steps) > 0 {
		sb.WriteString("Steps taken so far:\n")
		for _, st := range steps {
			fmt.Fprintf(&sb, "  %d. %s -> %s\n", st.StepNumber, st.Action, firstLine(st.Observation))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Assess progress and propose the single best next action. "+
		"If the goal is already met, say %s followed by a final summary and propose no actions.", doneMarker)
	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
