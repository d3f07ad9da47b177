package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RawCompletion is the upstream completion object, returned verbatim.
type RawCompletion json.RawMessage

// Content returns choices[0].message.content, if present.
func (r RawCompletion) Content() (string, bool) {
	res := gjson.GetBytes(r, "choices.0.message.content")
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// Gateway forwards chat messages to the configured completion endpoint.
// Implementations must not interpret the completion content.
type Gateway interface {
	Complete(ctx context.Context, messages []Message, temperature float64) (RawCompletion, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, messages []Message, temperature float64) (RawCompletion, error)

// Complete calls f.
func (f GatewayFunc) Complete(ctx context.Context, messages []Message, temperature float64) (RawCompletion, error) {
	return f(ctx, messages, temperature)
}

// ConfigurationError reports a required setting that is missing.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

// TransportError carries a non-success upstream status and message.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("llm transport: %s", e.Message)
	}
	return fmt.Sprintf("llm upstream status %d: %s", e.Status, e.Message)
}

// ErrEmptyCompletion is returned by Text when the completion carries no content.
var ErrEmptyCompletion = errors.New("llm completion has no content")

// Text runs a completion and returns its message content.
func Text(ctx context.Context, g Gateway, messages []Message, temperature float64) (string, error) {
	raw, err := g.Complete(ctx, messages, temperature)
	if err != nil {
		return "", err
	}
	content, ok := raw.Content()
	if !ok || strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// CompletionFromText builds a minimal completion object around content.
func CompletionFromText(content string) RawCompletion {
	payload, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": Message{Role: RoleAssistant, Content: content}},
		},
	})
	return RawCompletion(payload)
}

// Unconfigured is used when no provider credentials exist. Every call fails
// with the ConfigurationError it was built with.
type Unconfigured struct {
	Err *ConfigurationError
}

// Complete returns the configuration error.
func (u Unconfigured) Complete(context.Context, []Message, float64) (RawCompletion, error) {
	if u.Err == nil {
		return nil, &ConfigurationError{Setting: "LLM_MODEL"}
	}
	return nil, u.Err
}
