package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableIDMatchesJavaHashCode(t *testing.T) {
	assert.Equal(t, int32(0), StableID(""))
	assert.Equal(t, int32(97), StableID("a"))
	assert.Equal(t, int32(99162322), StableID("hello"))
	// Overflow wraps like Java int arithmetic.
	assert.Equal(t, int32(-422500582), StableID("activity_1700000000000"))
}

func TestParseStandard(t *testing.T) {
	n, ok := Parse(map[string]string{
		"title": "Sale", "body": "50% off", "image": "https://img/x.png",
		"title1": "Open", "url1": "https://shop",
		"title2": "  ", "url2": "https://ignored",
		"activity_id": "a",
	}, time.Now())
	require.True(t, ok)
	assert.Equal(t, Standard, n.Kind)
	assert.Equal(t, int32(97), n.ID)
	assert.Equal(t, "Sale", n.Title)
	assert.Equal(t, "https://img/x.png", n.ImageURL)
	assert.Equal(t, []Button{{Title: "Open", URL: "https://shop"}}, n.Buttons)
}

func TestParseStandardNeedsTitleAndBody(t *testing.T) {
	_, ok := Parse(map[string]string{"title": "only"}, time.Now())
	assert.False(t, ok)
	_, ok = Parse(map[string]string{"title": " ", "body": "b"}, time.Now())
	assert.False(t, ok)
}

func TestParseLiveActivity(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	n, ok := Parse(map[string]string{
		"message1": "Order", "message2": "On the way", "message3": "Tap",
		"progressPercent":       "0.459",
		"message1FontColorHex":  "#112233",
		"message2FontColorHex":  "not-a-color",
		"imageUrl":              "@https://img/y.png",
		"bg_color_gradient":     "#000000",
		"bg_color_gradient_dir": "Horizontal",
		"align":                 "left",
	}, now)
	require.True(t, ok)
	assert.Equal(t, LiveActivity, n.Kind)
	assert.Equal(t, StableID("activity_1700000000000"), n.ID)
	assert.Equal(t, 45, n.Progress)
	assert.Equal(t, "#112233", n.TitleColor)
	assert.Equal(t, DefaultMessageColor, n.MessageColor)
	assert.Equal(t, DefaultTapTextColor, n.TapTextColor)
	assert.Equal(t, DefaultBackgroundColor, n.BackgroundColor)
	assert.Equal(t, "https://img/y.png", n.ImageURL)
	require.NotNil(t, n.Gradient)
	assert.True(t, n.Gradient.Horizontal)
	assert.Equal(t, "left", n.Align)
}

func TestParseLiveActivityDefaults(t *testing.T) {
	n, ok := Parse(map[string]string{"message1": "", "message2": "", "message3": "", "bg_color_gradient": "#000000"}, time.Now())
	require.True(t, ok)
	assert.Equal(t, 0, n.Progress)
	assert.Equal(t, DefaultProgressColor, n.ProgressColor)
	assert.Nil(t, n.Gradient, "gradient needs a direction")
}

func TestIsLiveActivity(t *testing.T) {
	assert.False(t, IsLiveActivity(map[string]string{"message1": "a", "message2": "b"}))
	assert.True(t, IsLiveActivity(map[string]string{"message1": "a", "message2": "b", "message3": "c"}))
}
