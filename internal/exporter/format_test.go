package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "13.4", formatFloat(13.40))
	assert.Equal(t, "13", formatFloat(13.0))
	assert.Equal(t, "10.46", formatFloat(10.456))
	assert.Equal(t, "-0.09", formatFloat(-0.086))
	assert.Equal(t, "0", formatFloat(0))
}

func TestFormatCoord(t *testing.T) {
	assert.Equal(t, "-117.481027", formatCoord(-117.481027))
	assert.Equal(t, "33.7555312", formatCoord(33.7555312))
}
