// Package signal turns SIGINT and SIGTERM into context cancellation for a
// sieve run.
//
// The first signal cancels the run context: in-flight tool processes are
// killed through their command contexts and the analyzer returns the results
// it already has. A second signal calls the force-exit function, which by
// default exits the process with ExitInterrupted.
package signal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitInterrupted is the conventional exit status after a forced SIGINT.
const ExitInterrupted = 130

// Handler cancels its context on the first interrupt and forces an exit on
// the second.
type Handler struct {
	ctx         context.Context //nolint:containedctx // handler owns the run context
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	sigChan     chan os.Signal

	notice    io.Writer
	forceExit func(code int)

	mu       sync.Mutex
	received []os.Signal
	stopOnce sync.Once
}

// Option configures a Handler.
type Option func(*Handler)

// WithNotice sets where the "stopping" notice is written. Nil disables it.
func WithNotice(w io.Writer) Option {
	return func(h *Handler) { h.notice = w }
}

// WithForceExit replaces os.Exit as the action taken on a second signal.
func WithForceExit(fn func(code int)) Option {
	return func(h *Handler) { h.forceExit = fn }
}

// NewHandler starts listening for SIGINT and SIGTERM. Callers must call Stop.
func NewHandler(parent context.Context, opts ...Option) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		sigChan:     make(chan os.Signal, 1),
		notice:      os.Stderr,
		forceExit:   os.Exit,
	}
	for _, opt := range opts {
		opt(h)
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the run context.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted is closed once the first signal arrives.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Received returns the first signal, or nil when none arrived.
func (h *Handler) Received() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.received) == 0 {
		return nil
	}
	return h.received[0]
}

// Stop stops listening and cancels the context. It is idempotent.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

func (h *Handler) handleSignal(sig os.Signal) {
	h.mu.Lock()
	h.received = append(h.received, sig)
	count := len(h.received)
	h.mu.Unlock()

	switch count {
	case 1:
		h.cancel()
		close(h.interrupted)
		if h.notice != nil {
			_, _ = fmt.Fprintf(h.notice, "\nreceived %v, stopping after the current tool runs (repeat to quit now)\n", sig)
		}
	case 2:
		h.forceExit(ExitInterrupted)
	}
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case sig := <-h.sigChan:
			h.handleSignal(sig)
		}
	}
}
