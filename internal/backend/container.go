package backend

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/sieve/internal/config"
	"github.com/mrz1836/sieve/internal/constants"
	"github.com/mrz1836/sieve/internal/errors"
	"github.com/mrz1836/sieve/internal/prep"
)

// cleanupTimeout bounds removing a container left behind by a timeout.
const cleanupTimeout = 30 * time.Second

// Container runs the tool inside a fresh container per invocation. The
// compiler is selected inside the container, so invocations share no state.
type Container struct {
	runner     CommandRunner
	image      string
	mountPoint string
}

// NewContainer returns a container backend for cfg.Image.
func NewContainer(runner CommandRunner, cfg config.ContainerConfig) *Container {
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	mp := cfg.MountPoint
	if mp == "" {
		mp = constants.DefaultMountPoint
	}
	return &Container{runner: runner, image: cfg.Image, mountPoint: mp}
}

// Mode implements Backend.
func (c *Container) Mode() Mode { return ModeContainer }

// ParallelSafe implements Backend.
func (c *Container) ParallelSafe() bool { return true }

// MountRoot is the directory bind-mounted for target: its parent for a
// file, the directory itself otherwise.
func MountRoot(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", errors.Wrapf(err, "stat %s", target)
	}
	if info.IsDir() {
		return target, nil
	}
	return filepath.Dir(target), nil
}

// TranslateRemaps rewrites host remap directories under root to their
// location below mountPoint. Remaps outside root cannot be expressed in the
// container and are dropped. A trailing '/' on the host directory is kept.
func TranslateRemaps(remaps []prep.Remap, root, mountPoint string) []prep.Remap {
	out := make([]prep.Remap, 0, len(remaps))
	for _, r := range remaps {
		dir := r.Dir
		if !filepath.IsAbs(dir) {
			abs, err := filepath.Abs(dir)
			if err != nil {
				continue
			}
			dir = abs
		}
		rel, err := filepath.Rel(root, filepath.Clean(dir))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		translated := path.Join(mountPoint, filepath.ToSlash(rel))
		if strings.HasSuffix(r.Dir, "/") && !strings.HasSuffix(translated, "/") {
			translated += "/"
		}
		out = append(out, prep.Remap{Alias: r.Alias, Dir: translated})
	}
	return out
}

// Script is the shell program run inside the container. Compiler install
// logs go to stderr so stdout carries only the tool's JSON.
func Script(executable, version, target string, remaps []prep.Remap) string {
	var b strings.Builder
	b.WriteString("(solc-select use " + version + " >&2 || ")
	b.WriteString("(solc-select install " + version + " >&2 && solc-select use " + version + " >&2)) && ")
	b.WriteString(executable + " " + shellQuote(target) + " --json -")
	if len(remaps) > 0 {
		b.WriteString(" --solc-remaps " + shellQuote(prep.JoinRemaps(remaps)))
	}
	return b.String()
}

// Args is the full docker argument list for one run.
func (c *Container) Args(name, root, script string) []string {
	return []string{
		"run", "--rm",
		"--name", name,
		"-v", root + ":" + c.mountPoint,
		"-w", c.mountPoint,
		"--user", "root",
		c.image,
		"/bin/bash", "-c", script,
	}
}

// Execute implements Backend.
func (c *Container) Execute(ctx context.Context, inv Invocation) Output {
	log := zerolog.Ctx(ctx)

	root := inv.Root
	if root == "" {
		r, err := MountRoot(inv.Target)
		if err != nil {
			return Output{Stderr: err.Error()}
		}
		root = r
	}

	rel, err := filepath.Rel(root, inv.Target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Output{Stderr: "target " + inv.Target + " is outside mount root " + root}
	}

	remaps := TranslateRemaps(inv.Remaps, root, c.mountPoint)
	if dropped := len(inv.Remaps) - len(remaps); dropped > 0 {
		log.Debug().Int("dropped", dropped).Str("root", root).Msg("remaps outside mount root dropped")
	}

	name := "sieve-" + uuid.NewString()[:8]
	script := Script(inv.Executable, inv.Version, filepath.ToSlash(rel), remaps)

	runCtx, cancel := withTimeout(ctx, inv.Timeout)
	defer cancel()

	log.Debug().
		Str("container", name).
		Str("image", c.image).
		Str("root", root).
		Str("version", inv.Version).
		Msg("running container analysis")

	stdout, stderr, code, err := c.runner.Run(runCtx, "", constants.ToolDocker, c.Args(name, root, script)...)
	if timedOut(runCtx) {
		c.remove(ctx, name)
		return Output{Stderr: TimeoutMessage(inv.DisplayName, inv.Timeout)}
	}
	return finish(stdout, stderr, code, err)
}

// remove force-removes a container whose client was killed on timeout.
func (c *Container) remove(ctx context.Context, name string) {
	rmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if _, _, _, err := c.runner.Run(rmCtx, "", constants.ToolDocker, "rm", "-f", name); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("container", name).Msg("container cleanup failed")
	}
}

// shellQuote wraps s in single quotes for bash.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Ensure Container implements Backend.
var _ Backend = (*Container)(nil)
