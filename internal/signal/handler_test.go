package signal

import (
	"bytes"
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exitRecorder struct {
	mu    sync.Mutex
	codes []int
}

func (r *exitRecorder) exit(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
}

func (r *exitRecorder) calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.codes...)
}

func newTestHandler(t *testing.T) (*Handler, *bytes.Buffer, *exitRecorder) {
	t.Helper()
	var notice bytes.Buffer
	rec := &exitRecorder{}
	h := NewHandler(context.Background(), WithNotice(&notice), WithForceExit(rec.exit))
	t.Cleanup(h.Stop)
	return h, &notice, rec
}

func TestHandler_FirstSignalCancelsRun(t *testing.T) {
	h, notice, rec := newTestHandler(t)

	h.handleSignal(syscall.SIGINT)

	require.ErrorIs(t, h.Context().Err(), context.Canceled)
	select {
	case <-h.Interrupted():
	default:
		t.Fatal("interrupted channel should be closed after the first signal")
	}
	assert.Equal(t, syscall.SIGINT, h.Received())
	assert.Contains(t, notice.String(), "stopping after the current tool runs")
	assert.Empty(t, rec.calls())
}

func TestHandler_SecondSignalForcesExit(t *testing.T) {
	h, _, rec := newTestHandler(t)

	h.handleSignal(syscall.SIGTERM)
	h.handleSignal(syscall.SIGINT)
	h.handleSignal(syscall.SIGINT)

	assert.Equal(t, []int{ExitInterrupted}, rec.calls())
	assert.Equal(t, syscall.SIGTERM, h.Received())
}

func TestHandler_NilNotice(t *testing.T) {
	rec := &exitRecorder{}
	h := NewHandler(context.Background(), WithNotice(nil), WithForceExit(rec.exit))
	defer h.Stop()

	assert.NotPanics(t, func() { h.handleSignal(syscall.SIGINT) })
	assert.Error(t, h.Context().Err())
}

func TestHandler_NoSignal(t *testing.T) {
	h, _, _ := newTestHandler(t)

	require.NoError(t, h.Context().Err())
	assert.Nil(t, h.Received())
	select {
	case <-h.Interrupted():
		t.Fatal("interrupted channel should stay open without a signal")
	default:
	}
}

func TestHandler_StopCancelsAndIsIdempotent(t *testing.T) {
	h := NewHandler(context.Background(), WithNotice(nil))

	h.Stop()
	assert.NotPanics(t, h.Stop)
	assert.Error(t, h.Context().Err())

	select {
	case <-h.Interrupted():
		t.Fatal("Stop is not an interrupt")
	default:
	}
}

func TestHandler_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := NewHandler(parent, WithNotice(nil))
	defer h.Stop()

	cancel()

	select {
	case <-h.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("handler context should follow its parent")
	}
}

func TestHandler_DeliveredSignal(t *testing.T) {
	h, _, _ := newTestHandler(t)

	h.sigChan <- syscall.SIGTERM

	select {
	case <-h.Interrupted():
	case <-time.After(time.Second):
		t.Fatal("listener should handle a queued signal")
	}
	assert.Equal(t, syscall.SIGTERM, h.Received())
}
