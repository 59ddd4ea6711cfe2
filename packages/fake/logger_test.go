package fake

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	core, logs := observer.New(zapcore.DebugLevel)
	custom := zap.New(core)
	SetLogger(custom)
	assert.Same(t, custom, Logger())

	Logger().Debug("dispatched")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dispatched", logs.All()[0].Message)
}

func TestSetLogger_NilRestoresNop(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	SetLogger(nil)
	require.NotNil(t, Logger())
	assert.NotPanics(t, func() { Logger().Debug("ignored") })
}

func TestSetLogger_Concurrent(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(zap.NewNop())
		}()
		go func() {
			defer wg.Done()
			assert.NotNil(t, Logger())
		}()
	}
	wg.Wait()
}
