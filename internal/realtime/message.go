package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MessageTypeRuleTriggered marks a server signal that a rule matched and
// in-app content should be polled for.
const MessageTypeRuleTriggered = "rule_triggered"

// ErrDecode is returned for inbound frames that are not a single JSON
// object.
var ErrDecode = errors.New("realtime: malformed message")

// AuthFrame is the first frame sent after the socket opens.
type AuthFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Message is a decoded inbound frame.
type Message map[string]any

// Decode parses a text frame. Numbers are kept as json.Number.
func Decode(data []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m Message
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: not an object", ErrDecode)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrDecode)
	}
	return m, nil
}

// RuleTrigger returns the rule id when m is a rule_triggered message.
func (m Message) RuleTrigger() (string, bool) {
	if t, _ := m["message_type"].(string); t != MessageTypeRuleTriggered {
		return "", false
	}
	id, ok := m["rule_id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Flatten coerces every value to a string. Nested objects and arrays are
// re-encoded as JSON so they can be parsed again downstream.
func (m Message) Flatten() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = "null"
		case map[string]any, []any:
			data, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprint(val)
				continue
			}
			out[k] = string(data)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
