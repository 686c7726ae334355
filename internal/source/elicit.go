package source

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrElicitationUnsupported is returned by an Elicitor whose client did not
// declare the elicitation capability.
var ErrElicitationUnsupported = errors.New("client does not support elicitation")

// Action is the user's response to a prompt.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// ElicitResult is the client's answer to an elicitation request.
type ElicitResult struct {
	Action  Action                 `json:"action"`
	Content map[string]interface{} `json:"content,omitempty"`
}

// Accepted reports whether the user accepted the prompt.
func (r *ElicitResult) Accepted() bool {
	return r != nil && r.Action == ActionAccept
}

// Elicitor asks the user for structured input. schema is a flat JSON Schema
// object whose properties are primitive types.
type Elicitor interface {
	Elicit(ctx context.Context, message string, schema map[string]interface{}) (*ElicitResult, error)
}

// objectSchema builds a flat object schema.
func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringField(content map[string]interface{}, key string) string {
	if v, ok := content[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intField reads an integer answer. JSON numbers arrive as float64; some
// clients send numeric strings.
func intField(content map[string]interface{}, key string) (int, bool) {
	switch v := content[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

func boolField(content map[string]interface{}, key string) (bool, bool) {
	switch v := content[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	default:
		return false, false
	}
}
