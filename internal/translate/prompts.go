package translate

import (
	"fmt"
	"strings"

	"dirge/internal/contextwin"
	"dirge/internal/schema"
)

// Kind identifies which primitive a translation serves.
type Kind string

const (
	KindAct     Kind = "act"
	KindExtract Kind = "extract"
	KindObserve Kind = "observe"
)

const replyFormat = `Reply with a single JSON object:
{
  "code": "<code to run in the debugger namespace>",
  "reasoning": "<one sentence on why>",
  "description": "<state summary, observe only>",
  "record": {<extracted fields, extract only>},
  "actions": [{"code": "...", "description": "..."}]
}`

// renderPrompt builds the first-attempt prompt for one translation.
func renderPrompt(kind Kind, instruction string, w *contextwin.Window, shape *schema.Shape) string {
	var sb strings.Builder

	sb.WriteString("You are driving a live debugger session. Current state:\n\n")
	sb.WriteString(w.Text())
	sb.WriteString("\n\n")

	switch kind {
	case KindAct:
		fmt.Fprintf(&sb, "Task: %s\n\n", instruction)
		sb.WriteString("Write code that performs this task against the live target. " +
			"Names you bind persist for later calls in this session.\n\n")
	case KindExtract:
		fmt.Fprintf(&sb, "Task: extract the following from the target: %s\n\n", instruction)
		if shape != nil {
			sb.WriteString(shape.Describe())
			sb.WriteString("\n")
		}
		sb.WriteString("Write code that reads the needed state and print the record as " +
			"a single JSON object on stdout. Also place it in the \"record\" field.\n\n")
	case KindObserve:
		fmt.Fprintf(&sb, "Question: %s\n\n", instruction)
		sb.WriteString("Describe the current state relevant to the question and suggest " +
			"next actions. Do NOT include code to run now; suggestions go in \"actions\" " +
			"and nothing will be executed.\n\n")
	}

	sb.WriteString(replyFormat)
	return sb.String()
}

// renderHealingPrompt builds a retry prompt carrying the failed code and the
// fault text, against a fresh window. The symbol hint, when present, names
// the closest known symbol to one the failed code could not resolve.
func renderHealingPrompt(kind Kind, instruction string, w *contextwin.Window, shape *schema.Shape, failedCode, faultText, symbolHint string) string {
	var sb strings.Builder

	sb.WriteString(renderPrompt(kind, instruction, w, shape))
	sb.WriteString("\n\nYour previous attempt failed. Do not repeat it.\n\nFailed code:\n")
	sb.WriteString(failedCode)
	sb.WriteString("\n\nError:\n")
	sb.WriteString(faultText)
	sb.WriteString("\n")
	if symbolHint != "" {
		fmt.Fprintf(&sb, "\nHint: %s\n", symbolHint)
	}
	sb.WriteString("\nProduce a corrected version.")
	return sb.String()
}
