// Package notify turns push payloads into notifications the host can show.
// Two payload shapes exist: live activities (three message lines with a
// progress bar) and standard title/body notifications with optional image
// and action buttons.
package notify

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// Kind distinguishes the two payload shapes.
type Kind int

const (
	Standard Kind = iota
	LiveActivity
)

func (k Kind) String() string {
	if k == LiveActivity {
		return "live_activity"
	}
	return "standard"
}

// Default colours for live-activity fields.
const (
	DefaultTitleColor      = "#FF0000"
	DefaultMessageColor    = "#000000"
	DefaultTapTextColor    = "#CCCCCC"
	DefaultProgressColor   = "#00FF00"
	DefaultBackgroundColor = "#FFFFFF"
)

var colorRe = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

// Button is an action that opens URL.
type Button struct {
	Title string
	URL   string
}

// Gradient describes a two-stop background gradient starting at the
// background colour.
type Gradient struct {
	End        string
	Horizontal bool
}

// Notification is a parsed push payload.
type Notification struct {
	ID   int32
	Kind Kind

	Title    string
	Body     string
	TapText  string
	ImageURL string
	Buttons  []Button

	// Live-activity only.
	Progress        int
	TitleColor      string
	MessageColor    string
	TapTextColor    string
	ProgressColor   string
	BackgroundColor string
	Gradient        *Gradient
	Align           string
}

// Notifier displays notifications. Implemented by the host.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// IsLiveActivity reports whether data carries all three live-activity lines.
func IsLiveActivity(data map[string]string) bool {
	for _, k := range []string{"message1", "message2", "message3"} {
		if _, ok := data[k]; !ok {
			return false
		}
	}
	return true
}

// Parse builds a notification from push data. ok is false for standard
// payloads without a title and body, which are not shown.
func Parse(data map[string]string, now time.Time) (Notification, bool) {
	id := StableID(activityKey(data, now))
	if IsLiveActivity(data) {
		return parseLive(data, id), true
	}

	title, body := data["title"], data["body"]
	if isBlank(title) || isBlank(body) {
		return Notification{}, false
	}
	n := Notification{
		ID:       id,
		Kind:     Standard,
		Title:    title,
		Body:     body,
		ImageURL: data["image"],
	}
	for _, pair := range [][2]string{{"title1", "url1"}, {"title2", "url2"}} {
		t, u := data[pair[0]], data[pair[1]]
		if !isBlank(t) && !isBlank(u) {
			n.Buttons = append(n.Buttons, Button{Title: t, URL: u})
		}
	}
	return n, true
}

func parseLive(data map[string]string, id int32) Notification {
	n := Notification{
		ID:              id,
		Kind:            LiveActivity,
		Title:           data["message1"],
		Body:            data["message2"],
		TapText:         data["message3"],
		ImageURL:        strings.TrimPrefix(data["imageUrl"], "@"),
		Progress:        progress(data["progressPercent"]),
		TitleColor:      color(data, "message1FontColorHex", DefaultTitleColor),
		MessageColor:    color(data, "message2FontColorHex", DefaultMessageColor),
		TapTextColor:    color(data, "message3FontColorHex", DefaultTapTextColor),
		ProgressColor:   color(data, "progressColorHex", DefaultProgressColor),
		BackgroundColor: color(data, "backgroundColorHex", DefaultBackgroundColor),
		Align:           data["align"],
	}
	end, dir := data["bg_color_gradient"], data["bg_color_gradient_dir"]
	if end != "" && dir != "" && colorRe.MatchString(end) {
		n.Gradient = &Gradient{End: end, Horizontal: strings.EqualFold(dir, "horizontal")}
	}
	return n
}

// progress converts a 0..1 fraction to a whole percentage, truncating.
func progress(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f * 100)
}

func color(data map[string]string, key, def string) string {
	if v, ok := data[key]; ok && colorRe.MatchString(v) {
		return v
	}
	return def
}

func activityKey(data map[string]string, now time.Time) string {
	if id, ok := data["activity_id"]; ok {
		return id
	}
	return fmt.Sprintf("activity_%d", now.UnixMilli())
}

// StableID hashes s the way java.lang.String.hashCode does, so ids match
// the ones other SDKs derive from the same activity id.
func StableID(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
