package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProps(t *testing.T) {
	p := Props{
		"initial": "5",
		"step":    "abc",
		"value":   " 42.5 ",
		"open":    "True",
		"flag":    "",
		"label":   "Clicks",
	}

	assert.True(t, p.Has("label"))
	assert.False(t, p.Has("missing"))

	assert.Equal(t, "Clicks", p.String("label", "x"))
	assert.Equal(t, "x", p.String("missing", "x"))

	assert.Equal(t, 5, p.Int("initial", 0))
	assert.Equal(t, 1, p.Int("step", 1))
	assert.Equal(t, 7, p.Int("missing", 7))

	assert.InDelta(t, 42.5, p.Float("value", 0), 1e-9)
	assert.InDelta(t, 100, p.Float("label", 100), 1e-9)

	assert.True(t, p.Bool("open", false))
	assert.True(t, p.Bool("flag", false))
	assert.False(t, p.Bool("label", false))
	assert.True(t, p.Bool("missing", true))

	assert.Equal(t, []string{"flag", "initial", "label", "open", "step", "value"}, p.Keys())
}

func TestProps_Nil(t *testing.T) {
	var p Props
	assert.Equal(t, "d", p.String("x", "d"))
	assert.Equal(t, 3, p.Int("x", 3))
	assert.Empty(t, p.Keys())
}
