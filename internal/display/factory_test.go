package display

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/traynote/internal/config"
)

func TestFactory_BuildWithoutDisplay(t *testing.T) {
	f := NewFactory(nil, config.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	// No SetDisplay call: the daemon found no display on the main loop.
	for range 2 {
		fb, err := f.Build(nil, nil)
		require.Error(t, err)
		assert.Nil(t, fb)

		var derr *DisplayError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "no display available", derr.Message)
	}

	f.mu.Lock()
	assert.Nil(t, f.manager)
	f.mu.Unlock()

	// Stop with nothing built is a no-op.
	f.Stop()
}

func TestManager_StartWithoutDisplay(t *testing.T) {
	m := NewManager(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	scheduled := 0
	m.idle = func(func()) { scheduled++ }

	var derr *DisplayError
	require.ErrorAs(t, m.Start(nil), &derr)
	assert.Zero(t, scheduled)
}
