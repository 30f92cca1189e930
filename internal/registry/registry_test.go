package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle int

func (h fakeHandle) PID() int { return int(h) }

func names(backends []Backend) []string {
	out := make([]string, 0, len(backends))
	for _, b := range backends {
		out = append(out, b.Name)
	}
	return out
}

func TestRegister(t *testing.T) {
	r := New()

	require.NoError(t, r.Register("alpha", "http://x"))

	b, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, StateStarting, b.State)
	assert.Equal(t, "http://x", b.Endpoint)
	assert.Nil(t, b.Handle)
	assert.False(t, r.IsRunning("alpha"))

	err := r.Register("alpha", "http://other")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	assert.Error(t, r.Register("", "http://x"))
}

func TestMarkRunning(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("alpha", "http://x"))

	require.NoError(t, r.MarkRunning("alpha", fakeHandle(42)))
	b, _ := r.Get("alpha")
	assert.Equal(t, StateRunning, b.State)
	assert.Equal(t, 42, b.Handle.PID())
	assert.True(t, r.IsRunning("alpha"))

	assert.ErrorIs(t, r.MarkRunning("alpha", fakeHandle(43)), ErrHandleAssigned)
	assert.ErrorIs(t, r.MarkRunning("missing", fakeHandle(1)), ErrNotRegistered)
}

func TestMarkExitedRemovesEntry(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("alpha", "http://x"))
	require.NoError(t, r.Register("beta", "http://y"))
	require.NoError(t, r.MarkRunning("alpha", fakeHandle(1)))
	require.NoError(t, r.MarkRunning("beta", fakeHandle(2)))

	final, ok := r.MarkExited("beta", 3)
	require.True(t, ok)
	assert.Equal(t, StateExited, final.State)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 3, *final.ExitCode)

	_, ok = r.Get("beta")
	assert.False(t, ok)
	assert.Equal(t, []string{"alpha"}, names(r.ListRunning()))
	assert.Equal(t, 1, r.Len())

	_, ok = r.MarkExited("beta", 0)
	assert.False(t, ok, "exit of an unknown backend is ignored")
}

func TestExitedNameCanBeRegisteredAgain(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("alpha", "http://x"))
	require.NoError(t, r.MarkRunning("alpha", fakeHandle(1)))
	r.MarkExited("alpha", 0)

	require.NoError(t, r.Register("alpha", "http://x"))
	require.NoError(t, r.MarkRunning("alpha", fakeHandle(2)))
	b, _ := r.Get("alpha")
	assert.Equal(t, 2, b.Handle.PID())
}

func TestListRunningKeepsRegistrationOrder(t *testing.T) {
	r := New()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(n, "http://"+n))
	}
	require.NoError(t, r.MarkRunning("mid", fakeHandle(3)))
	require.NoError(t, r.MarkRunning("zeta", fakeHandle(1)))

	assert.Equal(t, []string{"zeta", "mid"}, names(r.ListRunning()))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(r.Snapshot()))

	assert.True(t, r.Remove("alpha"))
	assert.False(t, r.Remove("alpha"))
	assert.Equal(t, []string{"zeta", "mid"}, names(r.Snapshot()))
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("alpha", "http://x"))

	snap := r.Snapshot()
	snap[0].Endpoint = "mutated"

	b, _ := r.Get("alpha")
	assert.Equal(t, "http://x", b.Endpoint)
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("b%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := r.Register(name, "http://x"); err == nil {
				_ = r.MarkRunning(name, fakeHandle(1))
				r.MarkExited(name, 0)
			}
		}()
		go func() {
			defer wg.Done()
			_ = r.ListRunning()
			_ = r.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}
