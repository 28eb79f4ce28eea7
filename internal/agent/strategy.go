package agent

import "fmt"

// Strategy shapes how the planner explores the debugging space. The closed
// set of variants is fixed; configuration selects one by name.
type Strategy interface {
	// Name is the configuration identifier of the strategy.
	Name() string
	// Directive is injected into the planning prompt to steer step choice.
	Directive() string
}

type depthFirst struct{}

func (depthFirst) Name() string { return "depth-first" }
func (depthFirst) Directive() string {
	return "Follow the current lead to its conclusion before considering " +
		"alternatives. Prefer the step that digs deeper into the most recent finding."
}

type breadthFirst struct{}

func (breadthFirst) Name() string { return "breadth-first" }
func (breadthFirst) Directive() string {
	return "Survey broadly before committing. Prefer the step that examines an " +
		"aspect of the target not yet looked at."
}

type hypothesisDriven struct{}

func (hypothesisDriven) Name() string { return "hypothesis-driven" }
func (hypothesisDriven) Directive() string {
	return "Maintain an explicit hypothesis about the cause. Prefer the step " +
		"that most cheaply confirms or refutes the current hypothesis, and state " +
		"the hypothesis in your reasoning."
}

// ParseStrategy maps a configuration name to its strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "depth-first", "":
		return depthFirst{}, nil
	case "breadth-first":
		return breadthFirst{}, nil
	case "hypothesis-driven":
		return hypothesisDriven{}, nil
	default:
		return nil, fmt.Errorf("unknown agent strategy %q", name)
	}
}
