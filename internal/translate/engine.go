// Package translate turns natural-language debugging instructions into
// executed debugger actions. The engine owns the full pipeline for one
// instruction: snapshot, context window, cache lookup, provider call,
// execution, and the self-healing retry loop.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dirge/internal/bridge"
	"dirge/internal/cache"
	"dirge/internal/contextwin"
	"dirge/internal/events"
	"dirge/internal/logging"
	"dirge/internal/provider"
	"dirge/internal/schema"
	"dirge/internal/types"
)

// HealingAttempt records one failed try inside a healing session.
type HealingAttempt struct {
	Attempt int    `json:"attempt"`
	Code    string `json:"code"`
	Fault   string `json:"fault"`
}

// HealingSession is the ordered history of failed attempts that preceded
// the final outcome of one translation.
type HealingSession struct {
	Attempts []HealingAttempt `json:"attempts"`
}

// Outcome is the result of one completed translation.
type Outcome struct {
	Kind        Kind
	FromCache   bool
	Code        string
	Output      string
	Record      map[string]any
	Description string
	Actions     []types.Action
	Reasoning   string
	// Healing is non-nil when at least one attempt failed before success.
	Healing *HealingSession
}

// cachedPayload is the serialized form of a successful outcome.
type cachedPayload struct {
	Code        string         `json:"code,omitempty"`
	Output      string         `json:"output,omitempty"`
	Record      map[string]any `json:"record,omitempty"`
	Description string         `json:"description,omitempty"`
	Actions     []types.Action `json:"actions,omitempty"`
	Reasoning   string         `json:"reasoning,omitempty"`
}

// Engine runs the translation pipeline. One Engine serves one session; its
// methods must not be called concurrently because the bridge namespace is
// shared mutable state.
type Engine struct {
	bridge   bridge.Bridge
	provider provider.Provider
	cache    *cache.Cache
	builder  *contextwin.Builder

	tokenBudget    int
	healingEnabled bool
	maxRetries     int

	callback events.Callback
}

// Options carries the tunables an Engine needs from configuration.
type Options struct {
	TokenBudget    int
	HealingEnabled bool
	MaxRetries     int
	Callback       events.Callback
}

// NewEngine wires a translation engine over a bridge, provider, and cache.
func NewEngine(b bridge.Bridge, p provider.Provider, c *cache.Cache, opts Options) *Engine {
	return &Engine{
		bridge:         b,
		provider:       p,
		cache:          c,
		builder:        contextwin.NewBuilder(),
		tokenBudget:    opts.TokenBudget,
		healingEnabled: opts.HealingEnabled,
		maxRetries:     opts.MaxRetries,
		callback:       opts.Callback,
	}
}

// Snapshot captures the current debuggee state.
func (e *Engine) Snapshot(ctx context.Context) (*types.ProcessSnapshot, error) {
	return e.bridge.CaptureSnapshot(ctx)
}

// Run translates instruction and carries it to completion. The cache key is
// derived from the pre-execution state; a hit short-circuits before any
// provider call. Execution and schema faults are healed up to the retry
// ceiling, each retry against a fresh snapshot. Only final successful
// outcomes are stored, under the key of the state the instruction was first
// issued against.
func (e *Engine) Run(ctx context.Context, instruction string, kind Kind, shape *schema.Shape) (*Outcome, error) {
	snapshot, err := e.bridge.CaptureSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	window := e.builder.Build(snapshot, instruction, e.tokenBudget)
	key := e.deriveKey(kind, instruction, window, shape)
	logging.TranslateDebug("%s %q -> key %s", kind, instruction, key)

	if entry, err := e.cache.Lookup(key); err != nil {
		logging.Get(logging.CategoryCache).Warn("Lookup failed for %s: %v", key, err)
	} else if entry != nil {
		if out, ok := e.replay(ctx, kind, entry); ok {
			events.Emit(e.callback, events.Event{Type: events.CacheHit, Code: out.Code, Output: out.Output, Succeeded: true})
			return out, nil
		}
		// Stale entry; drop it so the fresh result can take its key.
		if err := e.cache.Invalidate(key); err != nil {
			logging.Get(logging.CategoryCache).Warn("Failed to invalidate %s: %v", key, err)
		}
	}

	maxAttempts := 1
	if e.healingEnabled && kind != KindObserve {
		maxAttempts = 1 + e.maxRetries
	}

	session := &HealingSession{}
	prompt := renderPrompt(kind, instruction, window, shape)
	var lastFault error
	var lastOut *Outcome

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			events.Emit(e.callback, events.Event{Type: events.HealStart, Attempt: attempt - 1, Raised: lastFault.Error()})
		}

		out, fault, err := e.attempt(ctx, kind, prompt, shape)
		if err != nil {
			return nil, err
		}
		if fault == nil {
			if attempt > 1 {
				events.Emit(e.callback, events.Event{Type: events.HealEnd, Attempt: attempt - 1, Succeeded: true})
				out.Healing = session
				logging.HealingDebug("Recovered %q on attempt %d/%d", instruction, attempt, maxAttempts)
			}
			e.save(key, kind, instruction, out)
			return out, nil
		}

		lastFault = fault
		lastOut = out
		session.Attempts = append(session.Attempts, HealingAttempt{
			Attempt: attempt,
			Code:    out.Code,
			Fault:   fault.Error(),
		})
		if attempt > 1 {
			events.Emit(e.callback, events.Event{Type: events.HealEnd, Attempt: attempt - 1, Succeeded: false})
		}
		if !types.Healable(fault) || attempt == maxAttempts {
			break
		}

		// Execution may have moved the target, so each retry sees fresh state.
		healSnapshot, err := e.bridge.CaptureSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		healWindow := e.builder.Build(healSnapshot, instruction, e.tokenBudget)
		hint := symbolHint(fault.Error(), NewSymbolResolver(healSnapshot.Symbols))
		prompt = renderHealingPrompt(kind, instruction, healWindow, shape, out.Code, fault.Error(), hint)
		logging.HealingDebug("Attempt %d/%d failed: %v", attempt, maxAttempts, fault)
	}

	// Exhausted. The outcome carries the full attempt history alongside the
	// final fault; nothing was cached.
	if lastOut != nil {
		lastOut.Healing = session
	}
	return lastOut, lastFault
}

// attempt runs one provider call plus execution/validation. fault carries
// healable failures; abort ends the run immediately.
func (e *Engine) attempt(ctx context.Context, kind Kind, prompt string, shape *schema.Shape) (out *Outcome, fault, abort error) {
	resp, err := e.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, nil, &types.ProviderError{Op: "generate", Err: err}
	}
	events.Emit(e.callback, events.Event{Type: events.ProviderResponse, Code: resp.Code})

	out = &Outcome{
		Kind:        kind,
		Code:        resp.Code,
		Actions:     resp.Actions,
		Reasoning:   resp.Reasoning,
		Description: resp.Description,
	}

	if kind == KindObserve {
		if out.Description == "" {
			out.Description = resp.Reasoning
		}
		return out, nil, nil
	}

	if out.Code == "" {
		return out, &types.ExecutionError{Detail: "provider produced no code"}, nil
	}

	events.Emit(e.callback, events.Event{Type: events.CodeStart, Code: out.Code})
	result, err := e.bridge.Execute(ctx, out.Code)
	events.Emit(e.callback, events.Event{
		Type: events.CodeEnd, Code: out.Code,
		Output: result.Output, Raised: result.Raised, Succeeded: result.Succeeded(),
	})
	if err != nil {
		return out, nil, err
	}
	out.Output = result.Output

	if !result.Succeeded() {
		return out, &types.ExecutionError{Code: out.Code, Detail: result.Raised}, nil
	}

	if kind == KindExtract {
		record := resp.Record
		if record == nil {
			record = salvageRecord(result.Output)
		}
		if shape != nil {
			if err := shape.Validate(record); err != nil {
				return out, err, nil
			}
		}
		out.Record = record
	}

	return out, nil, nil
}

// deriveKey builds the content-addressed key for this translation.
func (e *Engine) deriveKey(kind Kind, instruction string, w *contextwin.Window, shape *schema.Shape) cache.Key {
	canonical := cache.Canonicalize(w)
	if shape != nil {
		return cache.DeriveKey(string(kind), instruction, canonical, shape.Fingerprint())
	}
	return cache.DeriveKey(string(kind), instruction, canonical)
}

// replay rebuilds an outcome from a cache entry. An act hit re-executes the
// cached code so the session namespace sees the same effects; extract and
// observe hits are pure replays.
func (e *Engine) replay(ctx context.Context, kind Kind, entry *cache.Entry) (*Outcome, bool) {
	var payload cachedPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		logging.Get(logging.CategoryCache).Warn("Undecodable payload for %s, treating as miss: %v", entry.Key, err)
		return nil, false
	}

	out := &Outcome{
		Kind:        kind,
		FromCache:   true,
		Code:        payload.Code,
		Output:      payload.Output,
		Record:      payload.Record,
		Description: payload.Description,
		Actions:     payload.Actions,
		Reasoning:   payload.Reasoning,
	}

	if kind == KindAct && payload.Code != "" {
		result, err := e.bridge.Execute(ctx, payload.Code)
		if err != nil || !result.Succeeded() {
			// Cached code no longer runs against this target; fall through to
			// a full translation.
			logging.CacheDebug("Cached code for %s failed on replay, treating as miss", entry.Key)
			return nil, false
		}
		out.Output = result.Output
	}

	return out, true
}

// save stores a successful outcome. Failures are logged, never surfaced:
// a broken cache must not fail a translation that already succeeded.
func (e *Engine) save(key cache.Key, kind Kind, instruction string, out *Outcome) {
	payload, err := json.Marshal(cachedPayload{
		Code:        out.Code,
		Output:      out.Output,
		Record:      out.Record,
		Description: out.Description,
		Actions:     out.Actions,
		Reasoning:   out.Reasoning,
	})
	if err != nil {
		logging.Get(logging.CategoryCache).Warn("Failed to serialize outcome: %v", err)
		return
	}
	if err := e.cache.Save(key, string(kind), instruction, string(payload)); err != nil {
		if errors.Is(err, cache.ErrKeyCollision) {
			// Distinct content on one key breaks the content-address guarantee.
			logging.Get(logging.CategoryCache).Error("Integrity failure storing %s: %v", key, err)
			return
		}
		logging.Get(logging.CategoryCache).Warn("Failed to store outcome for %s: %v", key, err)
	}
}

// salvageRecord pulls a JSON object out of loose execution output.
func salvageRecord(output string) map[string]any {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return nil
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(output[start:end+1]), &record); err != nil {
		return nil
	}
	return record
}

// String renders an outcome for logs and CLI display.
func (o *Outcome) String() string {
	switch o.Kind {
	case KindObserve:
		return o.Description
	case KindExtract:
		b, _ := json.Marshal(o.Record)
		return string(b)
	default:
		return fmt.Sprintf("ok (%d bytes output)", len(o.Output))
	}
}
