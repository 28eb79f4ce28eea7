package contextwin

import "unicode/utf8"

// TokenCounter estimates token counts for budget management. The heuristic
// is ~4 characters per token, which tracks current frontier tokenizers
// closely enough for windowing decisions.
type TokenCounter struct {
	charsPerToken float64
}

// NewTokenCounter creates a token counter with default calibration.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{charsPerToken: 4.0}
}

// CountString estimates tokens in a string.
func (tc *TokenCounter) CountString(s string) int {
	if s == "" {
		return 0
	}
	return int(float64(utf8.RuneCountInString(s)) / tc.charsPerToken)
}
