// Package tool defines the analysis tool plugins the orchestrator drives.
//
// Tools form a closed set identified by Kind. New constructs one with an
// exhaustive switch, so adding a tool means adding a Kind, a constructor
// case and a reducer case in the parser package.
package tool

import (
	"context"
	"slices"
	"strings"

	"github.com/mrz1836/sieve/internal/backend"
	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/contract"
	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/prep"
)

// Kind identifies a supported tool.
type Kind string

// Supported tools.
const (
	KindSlither Kind = "slither"
)

// AllKeyword selects every known tool.
const AllKeyword = "all"

// Known returns every supported Kind in run order.
func Known() []Kind {
	return []Kind{KindSlither}
}

// ParseKind maps a tool name to its Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(Known(), k) {
		return k, nil
	}
	return "", errors.Wrapf(errors.ErrUnknownTool, "%q", name)
}

// ParseKinds parses a comma-separated tool list or "all". Known names keep
// their order with duplicates removed; unknown names are returned
// separately so callers can warn about them.
func ParseKinds(list string) (kinds []Kind, unknown []string) {
	if strings.EqualFold(strings.TrimSpace(list), AllKeyword) {
		return Known(), nil
	}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, err := ParseKind(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, unknown
}

// Tool is one analysis plugin. Run returns raw output only; parsing belongs
// to the parser package.
type Tool interface {
	// Kind identifies the tool.
	Kind() Kind

	// Name is the stable name used in result keys and file names.
	Name() string

	// Languages lists the contract languages the tool accepts.
	Languages() []contract.Language

	// Available reports whether the tool can run. It has no side effects
	// beyond probing.
	Available(ctx context.Context) bool

	// Run analyzes the artifact. Failures are reported through the return
	// values, never as an error.
	Run(ctx context.Context, art *contract.Artifact) (success bool, stdout, stderr string)

	// ParallelSafe reports whether Run may be called concurrently.
	ParallelSafe() bool
}

// Supports reports whether t accepts lang.
func Supports(t Tool, lang contract.Language) bool {
	return slices.Contains(t.Languages(), lang)
}

// LookPathFunc finds an executable on PATH.
type LookPathFunc func(file string) (string, error)

// Options carries the shared collaborators every tool is built from.
type Options struct {
	Config   *config.Config
	Backend  backend.Backend
	Prober   *backend.Prober
	Scan     *prep.ScanCache
	MainFile prep.MainFileSelector
	LookPath LookPathFunc
}

// New constructs the tool for kind.
func New(kind Kind, opts Options) (Tool, error) {
	switch kind {
	case KindSlither:
		return NewSlither(opts)
	default:
		return nil, errors.Wrapf(errors.ErrUnknownTool, "%q", string(kind))
	}
}

// NewAll constructs one tool per kind, in order.
func NewAll(kinds []Kind, opts Options) ([]Tool, error) {
	tools := make([]Tool, 0, len(kinds))
	for _, k := range kinds {
		t, err := New(k, opts)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}
