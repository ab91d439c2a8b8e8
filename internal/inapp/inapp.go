// Package inapp models in-app render payloads: an HTML document shown as a
// popup, banner or picture-in-picture overlay.
package inapp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalid is returned for payloads that cannot be rendered.
var ErrInvalid = errors.New("inapp: invalid payload")

// Layout is the overlay kind requested by the server.
type Layout string

const (
	Popup  Layout = "popup"
	Banner Layout = "banner"
	PiP    Layout = "pip"
)

func (l Layout) valid() bool {
	switch l {
	case Popup, Banner, PiP:
		return true
	}
	return false
}

// Content is a validated render request.
type Content struct {
	Layout Layout
	HTML   string
	// Raw is the payload the content was parsed from.
	Raw map[string]any
}

// Parse validates a render payload of the form
// {type, template: {data: {content: [html, ...]}}}. A payload wrapped in an
// outer "data" object is unwrapped first.
func Parse(payload map[string]any) (Content, error) {
	if payload == nil {
		return Content{}, fmt.Errorf("%w: empty", ErrInvalid)
	}
	if inner, ok := payload["data"].(map[string]any); ok {
		payload = inner
	}

	layout, ok := payload["type"].(string)
	if !ok || layout == "" {
		return Content{}, fmt.Errorf("%w: missing type", ErrInvalid)
	}
	if !Layout(layout).valid() {
		return Content{}, fmt.Errorf("%w: unknown layout %q", ErrInvalid, layout)
	}
	template, ok := payload["template"].(map[string]any)
	if !ok {
		return Content{}, fmt.Errorf("%w: missing template", ErrInvalid)
	}
	data, _ := template["data"].(map[string]any)
	list, _ := data["content"].([]any)
	if len(list) == 0 {
		return Content{}, fmt.Errorf("%w: missing content", ErrInvalid)
	}
	html, ok := list[0].(string)
	if !ok {
		return Content{}, fmt.Errorf("%w: content is not a string", ErrInvalid)
	}

	return Content{Layout: Layout(layout), HTML: html, Raw: payload}, nil
}

// FromSocket extracts a render payload from a flattened realtime message.
// Only messages with type "in_app" qualify; their "data" field holds the
// payload as a JSON document. ok is false for other message types.
func FromSocket(msg map[string]string) (c Content, ok bool, err error) {
	if msg["type"] != "in_app" {
		return Content{}, false, nil
	}
	raw, present := msg["data"]
	if !present {
		return Content{}, false, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Content{}, true, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	c, err = Parse(payload)
	return c, true, err
}
