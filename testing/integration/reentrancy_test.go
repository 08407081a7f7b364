package integration

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/emitz"
)

// Each stage listens once for "advance" and registers the next stage while
// it runs, so the chain is rebuilt during dispatch.
func TestWorkflowChainDuringDispatch(t *testing.T) {
	events := emitz.New(emitz.WithDiagnostics(emitz.NopDiagnostics{}))
	var ran []string

	var stage func(n int) emitz.Listener
	stage = func(n int) emitz.Listener {
		return emitz.Func(func(...any) {
			ran = append(ran, fmt.Sprintf("stage%d", n))
			if n < 3 {
				require.NoError(t, events.Once("advance", stage(n+1)))
			}
		})
	}
	require.NoError(t, events.Once("advance", stage(1)))

	for i := 0; i < 5; i++ {
		_, err := events.Emit("advance")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"stage1", "stage2", "stage3"}, ran)
	assert.Equal(t, 0, events.ListenerCount("advance"))
}

// Lifecycle events let a supervisor mirror registrations into an audit log.
func TestLifecycleAudit(t *testing.T) {
	events := emitz.New(emitz.WithDiagnostics(emitz.NopDiagnostics{}))
	var audit []string

	require.NoError(t, events.On(emitz.NewListenerEvent, emitz.Func(func(args ...any) {
		audit = append(audit, fmt.Sprintf("+%v", args[0]))
	})))
	require.NoError(t, events.On(emitz.RemoveListenerEvent, emitz.Func(func(args ...any) {
		audit = append(audit, fmt.Sprintf("-%v", args[0]))
	})))

	tick := emitz.Func(func(...any) {})
	require.NoError(t, events.On("tick", tick))
	require.NoError(t, events.Once("tock", tick))
	_, err := events.Emit("tock")
	require.NoError(t, err)
	require.NoError(t, events.RemoveAllListeners())

	assert.Equal(t, []string{
		"+removeListener", // seen by the newListener watcher
		"+tick",
		"+tock",
		"-tock", // one-shot self-removal
		"-newListener",
		"-tick",
	}, audit)
	assert.Empty(t, events.EventNames())
}

// A listener that emits the event it is handling recurses synchronously,
// each level dispatching its own snapshot.
func TestRecursiveEmit(t *testing.T) {
	events := emitz.New(emitz.WithDiagnostics(emitz.NopDiagnostics{}))
	depth := 0
	var trail []int

	require.NoError(t, events.On("countdown", emitz.Func(func(args ...any) {
		n := args[0].(int)
		trail = append(trail, n)
		if n > 0 {
			depth++
			_, err := events.Emit("countdown", n-1)
			require.NoError(t, err)
		}
	})))

	_, err := events.Emit("countdown", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1, 0}, trail)
	assert.Equal(t, 3, depth)
}
