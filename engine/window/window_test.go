package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowRejectsInvertedLimits(t *testing.T) {
	w, err := NewWindow(WithMinSize(800, 600), WithMaxSize(640, 480))
	require.Error(t, err)
	assert.Nil(t, w)
}

func TestClampSize(t *testing.T) {
	assert.Equal(t, 640, clampSize(100, 640, 3840))
	assert.Equal(t, 3840, clampSize(5000, 640, 3840))
	assert.Equal(t, 1280, clampSize(1280, 640, 3840))
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.ErrorIs(t, w.Close(), ErrNotInitialized)
	assert.NotPanics(t, func() { w.SetTitle("AEFR") })
}
