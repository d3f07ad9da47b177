package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"recruit-backend/internal/shared/telemetry"
)

const (
	// FallbackReason is stored when a match reply cannot be parsed.
	FallbackReason = "Failed to parse AI response"
	// MissingReason is stored when a parsed match reply has no reason.
	MissingReason = "No reason provided"

	maxErrorText = 2000
)

var (
	fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

	// A reply cut off before its closing fence.
	openFencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\r?\\n(.*)$")
)

// ParseError reports model output that is not valid JSON after fence stripping.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON in model output: %v: %s", e.Err, telemetry.Truncate(e.Text, maxErrorText))
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Unfence returns the body of the first fenced code block in raw, or raw
// trimmed when there is none. An opening fence that is never closed yields
// everything after it.
func Unfence(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := openFencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// JSON strips optional code fences from raw and parses the rest.
func JSON(raw string) (any, error) {
	text := Unfence(raw)
	var out any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &ParseError{Text: raw, Err: err}
	}
	return out, nil
}

// Array parses raw like JSON and wraps a non-array value in a one-element slice.
func Array(raw string) ([]any, error) {
	parsed, err := JSON(raw)
	if err != nil {
		return nil, err
	}
	if items, ok := parsed.([]any); ok {
		return items, nil
	}
	return []any{parsed}, nil
}

// MatchResult is the score and justification read from a match reply.
type MatchResult struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Match reads a match reply. It never fails: unparseable input yields a zero
// score with FallbackReason.
func Match(raw string) MatchResult {
	parsed, err := JSON(raw)
	if err != nil {
		telemetry.Warn("match.parse_failed", map[string]any{
			"content": telemetry.Truncate(raw, 500),
		})
		return MatchResult{Score: 0, Reason: FallbackReason}
	}

	obj, _ := parsed.(map[string]any)
	result := MatchResult{Score: coerceScore(obj["score"]), Reason: MissingReason}
	if reason, ok := obj["reason"].(string); ok && strings.TrimSpace(reason) != "" {
		result.Reason = strings.TrimSpace(reason)
	}
	return result
}

func coerceScore(v any) int {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 100 {
		return 100
	}
	return int(math.Round(f))
}
