package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Payload is the opaque key/value map attached to conditions and actions.
// Each condition type or action kind interprets its own keys.
type Payload map[string]any

// String returns a non-empty string value for key.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// UUID returns the value for key parsed as a UUID. Malformed values count as absent.
func (p Payload) UUID(key string) (uuid.UUID, bool) {
	s, ok := p.String(key)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Number returns the value for key as a float64. JSON numbers and numeric strings are accepted.
func (p Payload) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
