package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	t.Run("clean json", func(t *testing.T) {
		resp := ParseResponse(`{"code": "thread.StepOver()", "reasoning": "step past the call"}`)
		assert.Equal(t, "thread.StepOver()", resp.Code)
		assert.Equal(t, "step past the call", resp.Reasoning)
	})

	t.Run("json inside prose", func(t *testing.T) {
		resp := ParseResponse("Sure, here is the plan:\n" +
			`{"code": "bp.Enable()", "reasoning": "re-arm"}` + "\nLet me know.")
		assert.Equal(t, "bp.Enable()", resp.Code)
	})

	t.Run("actions list", func(t *testing.T) {
		resp := ParseResponse(`{"actions": [{"command": "bt", "description": "backtrace"}]}`)
		assert.Len(t, resp.Actions, 1)
		assert.Equal(t, "bt", resp.Actions[0].Command)
	})

	t.Run("record payload", func(t *testing.T) {
		resp := ParseResponse(`{"record": {"total": 42}}`)
		assert.Equal(t, float64(42), resp.Record["total"])
	})

	t.Run("no json falls back to code", func(t *testing.T) {
		resp := ParseResponse("thread.StepOver()\n")
		assert.Equal(t, "thread.StepOver()", resp.Code)
		assert.Equal(t, "unstructured response", resp.Reasoning)
	})

	t.Run("empty json object falls back", func(t *testing.T) {
		resp := ParseResponse("{}")
		assert.Equal(t, "{}", resp.Code)
	})
}
