package provider

import (
	"encoding/json"
	"strings"

	"dirge/internal/types"
)

// rawResponse mirrors the JSON shape providers are prompted to emit.
type rawResponse struct {
	Code        string         `json:"code"`
	Reasoning   string         `json:"reasoning"`
	Description string         `json:"description"`
	Record      map[string]any `json:"record"`
	Actions     []struct {
		Command     string `json:"command"`
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"actions"`
}

// ParseResponse salvages a Response from loose provider text. It looks for
// the outermost JSON object and decodes the known fields; if no usable JSON
// is present the entire body is treated as a single code block.
func ParseResponse(content string) Response {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		var raw rawResponse
		if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err == nil {
			resp := Response{
				Code:        raw.Code,
				Reasoning:   raw.Reasoning,
				Description: raw.Description,
				Record:      raw.Record,
			}
			for _, a := range raw.Actions {
				resp.Actions = append(resp.Actions, types.Action{
					Command:     a.Command,
					Code:        a.Code,
					Description: a.Description,
				})
			}
			if resp.Code != "" || len(resp.Actions) > 0 || resp.Record != nil || resp.Description != "" {
				return resp
			}
		}
	}

	return Response{
		Code:      strings.TrimSpace(content),
		Reasoning: "unstructured response",
	}
}
