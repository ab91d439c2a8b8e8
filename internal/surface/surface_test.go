package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ninjabase8085/pushapp/internal/inapp"
)

type page string

func (p page) Name() string { return string(p) }
func (p page) Dispatch(fn func()) { fn() }
func (p page) Render(inapp.Content) error { return nil }

func TestRegistry(t *testing.T) {
	var r Registry
	assert.Nil(t, r.Current())
	assert.Nil(t, r.Clear())

	r.Set(page("home"))
	assert.Equal(t, "home", r.Current().Name())

	r.Set(page("cart"))
	assert.False(t, r.ClearIf(page("home")), "stale surface must not clear the new one")
	assert.Equal(t, "cart", r.Current().Name())

	assert.Equal(t, "cart", r.Clear().Name())
	assert.Nil(t, r.Current())
}

func TestClearIf(t *testing.T) {
	var r Registry
	r.Set(page("home"))
	assert.True(t, r.ClearIf(page("home")))
	assert.Nil(t, r.Current())
}
