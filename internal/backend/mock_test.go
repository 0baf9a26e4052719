package backend

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/errors"
)

type call struct {
	dir  string
	name string
	args []string
}

type response struct {
	stdout, stderr string
	exitCode       int
	err            error
	block          bool
}

// mockRunner answers by "<name> <first arg>" and records every call.
type mockRunner struct {
	mu        sync.Mutex
	responses map[string]response
	calls     []call
}

func newMockRunner() *mockRunner {
	return &mockRunner{responses: make(map[string]response)}
}

func (m *mockRunner) on(key string, r response) *mockRunner {
	m.responses[key] = r
	return m
}

func (m *mockRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, int, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call{dir: dir, name: name, args: append([]string(nil), args...)})
	key := name
	if len(args) > 0 {
		key += " " + args[0]
	}
	r, ok := m.responses[key]
	m.mu.Unlock()

	if !ok {
		return "", "", 1, errors.ErrCommandNotConfigured
	}
	if r.block {
		<-ctx.Done()
		return "", "", -1, ctx.Err()
	}
	return r.stdout, r.stderr, r.exitCode, r.err
}

func (m *mockRunner) callsTo(prefix string) []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []call
	for _, c := range m.calls {
		if strings.HasPrefix(c.name+" "+strings.Join(c.args, " "), prefix) {
			out = append(out, c)
		}
	}
	return out
}

func testCtx() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}
