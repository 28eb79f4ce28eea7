// Package events carries the lightweight event stream emitted around code
// execution, healing, and agent steps so a presentation layer can observe
// the pipeline without being wired into it.
package events

// Type identifies what an event describes.
type Type string

const (
	CodeStart        Type = "code_start"
	CodeEnd          Type = "code_end"
	HealStart        Type = "heal_start"
	HealEnd          Type = "heal_end"
	CacheHit         Type = "cache_hit"
	ProviderResponse Type = "provider_response"
	AgentStep        Type = "agent_step"
)

// Event is emitted around execution and healing operations.
type Event struct {
	Type      Type
	Code      string
	Output    string
	Raised    string
	Succeeded bool
	Attempt   int
	Metadata  map[string]any
}

// Callback receives events. Callbacks run synchronously on the calling
// goroutine and must not block.
type Callback func(Event)

// Emit invokes cb when non-nil.
func Emit(cb Callback, ev Event) {
	if cb != nil {
		cb(ev)
	}
}
