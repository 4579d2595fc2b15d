package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
	assert.Equal(t, float32(32), Coalesce(float32(0), 32))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(-4, 1, 8))
	assert.Equal(t, 8, Clamp(12, 1, 8))
	assert.Equal(t, float32(2.5), Clamp(float32(2.5), 1, 8))
}
