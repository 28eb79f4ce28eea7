package types

// Action is a single debugging action proposed or executed by the provider.
type Action struct {
	// Command is a raw debugger CLI command (legacy path).
	Command string `json:"command,omitempty"`
	// Code is generated code run through the bridge's persistent namespace.
	Code string `json:"code,omitempty"`
	// Description is the human-readable intent of the action.
	Description string `json:"description"`
	// Args carries any additional structured arguments.
	Args map[string]any `json:"args,omitempty"`
}

// ActResult is the outcome of an act() call.
type ActResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Actions []Action `json:"actions"`
	Output  string   `json:"output,omitempty"`
}

// ObserveResult is the outcome of an observe() call: a description of the
// current state plus a ranked list of suggested next actions. Nothing in an
// ObserveResult has been executed.
type ObserveResult struct {
	Description string   `json:"description"`
	Actions     []Action `json:"actions"`
}

// AgentStep is one immutable entry in an agent run's ordered step log.
// Step numbers increase strictly from 1 within a run.
type AgentStep struct {
	StepNumber  int    `json:"step_number"`
	Action      string `json:"action"`
	Observation string `json:"observation"`
	Reasoning   string `json:"reasoning,omitempty"`
}
