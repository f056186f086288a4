package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	for _, level := range []string{"debug", "INFO", " warn ", "error"} {
		l, err := Init(level, true)
		require.NoError(t, err, level)
		assert.NotNil(t, l)
	}
	_, err := Init("chatty", false)
	assert.Error(t, err)
}

func TestDisable(t *testing.T) {
	_, err := Init("debug", false)
	require.NoError(t, err)

	Disable()
	assert.False(t, L().Core().Enabled(0))
	Enable()
	assert.True(t, L().Core().Enabled(0))
	Infof("logging %s", "works")
}
