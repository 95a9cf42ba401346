package applog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
)

func TestLogger_ForAttachesCategory(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStumpy(&buf, logiface.LevelInformational)

	logger.For(CategoryMainLoop).Info().Str("detail", "over-rate").Log("step budget exceeded")

	out := buf.String()
	assert.True(t, strings.Contains(out, `"category":"mainloop"`), "expected category field in: %s", out)
	assert.True(t, strings.Contains(out, "step budget exceeded"))
}

func TestLogger_LevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStumpy(&buf, logiface.LevelWarning)

	logger.For(CategoryAsync).Debug().Log("should not appear")

	assert.Empty(t, buf.String())
}
