// Package main provides the entry point for the sieve CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/sieve/internal/cli"
	"github.com/mrz1836/sieve/internal/signal"
)

// Set at build time via ldflags.
//
//nolint:gochecknoglobals // ldflags targets
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	h := signal.NewHandler(context.Background())
	defer h.Stop()
	defer cli.CloseLogFile()

	err := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	return cli.ExitCodeForError(err)
}
