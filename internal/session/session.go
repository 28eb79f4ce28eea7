// Package session wires one attached debuggee into a ready-to-use pipeline:
// cache, translate engine, primitive façade, and agent scheduler, all built
// from one configuration.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"dirge/internal/agent"
	"dirge/internal/bridge"
	"dirge/internal/cache"
	"dirge/internal/config"
	"dirge/internal/events"
	"dirge/internal/logging"
	"dirge/internal/primitives"
	"dirge/internal/provider"
	"dirge/internal/schema"
	"dirge/internal/translate"
	"dirge/internal/types"
)

// Session is one debugging session against one attached target. All calls
// share the bridge's persistent namespace, so the session serializes them:
// concurrent calls on one Session queue, they never interleave.
type Session struct {
	ID string

	mu        sync.Mutex
	cfg       *config.Config
	cache     *cache.Cache
	engine    *translate.Engine
	prims     *primitives.Primitives
	scheduler *agent.Scheduler
}

// Option adjusts session construction.
type Option func(*options)

type options struct {
	callback events.Callback
}

// WithEvents registers a callback for pipeline events (execution, healing,
// cache hits, agent steps).
func WithEvents(cb events.Callback) Option {
	return func(o *options) { o.callback = cb }
}

// New builds a session over an attached bridge and a provider.
func New(cfg *config.Config, b bridge.Bridge, p provider.Provider, opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Directory)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	engine := translate.NewEngine(b, p, c, translate.Options{
		TokenBudget:    cfg.Context.MaxTokens,
		HealingEnabled: cfg.Healing.Enabled,
		MaxRetries:     cfg.Healing.MaxRetries,
		Callback:       o.callback,
	})
	prims := primitives.New(engine)

	strategy, err := agent.ParseStrategy(cfg.Agent.Strategy)
	if err != nil {
		c.Close()
		return nil, err
	}
	timeout, err := cfg.AgentTimeout()
	if err != nil {
		c.Close()
		return nil, err
	}

	s := &Session{
		ID:        uuid.New().String(),
		cfg:       cfg,
		cache:     c,
		engine:    engine,
		prims:     prims,
		scheduler: agent.NewScheduler(prims, cfg.Agent.MaxSteps, timeout, strategy, o.callback),
	}
	logging.Get(logging.CategorySession).Info("Session %s created (cache=%v healing=%v)",
		s.ID, cfg.Cache.Enabled, cfg.Healing.Enabled)
	return s, nil
}

// Act performs a state-changing instruction.
func (s *Session) Act(ctx context.Context, instruction string) (*types.ActResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prims.Act(ctx, instruction)
}

// Extract reads structured data matching shape.
func (s *Session) Extract(ctx context.Context, instruction string, shape schema.Shape) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prims.Extract(ctx, instruction, shape)
}

// Observe answers a question about current state without executing anything.
func (s *Session) Observe(ctx context.Context, instruction string) (*types.ObserveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prims.Observe(ctx, instruction)
}

// Agent runs an autonomous multi-step loop toward goal. The session stays
// locked for the whole run; other calls queue behind it.
func (s *Session) Agent(ctx context.Context, goal string, opts agent.Options) (*agent.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Execute(ctx, goal, opts)
}

// Snapshot captures the current debuggee state.
func (s *Session) Snapshot(ctx context.Context) (*types.ProcessSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot(ctx)
}

// Cache exposes the translation cache for inspection tooling.
func (s *Session) Cache() *cache.Cache {
	return s.cache
}

// Close releases session resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logging.Get(logging.CategorySession).Info("Session %s closed", s.ID)
	return s.cache.Close()
}
