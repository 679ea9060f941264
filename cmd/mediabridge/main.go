// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package main is the mediabridge command.
//
// Usage:
//
//	mediabridge [-config file] <command> [flags]
//
// Commands:
//
//	init       download and extract the Netflix Prize dataset
//	load       run the ETL into DuckDB (--max-reviews N, --regen)
//	recommend  train a model and print recommended movies
//	status     print table counts, the last ETL run and saved models
//	serve      run the HTTP API under the supervisor tree
//	clean      delete the data and output directories
//
// Configuration is loaded with Koanf (environment > config file > defaults);
// command flags override the loaded values. Logs go to stderr and command
// results to stdout.
//
// Exit status is 0 on success and when a destructive prompt is declined,
// 1 on any error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/logging"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
)

// errUsage is returned after usage has already been printed.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"init", "download and extract the Netflix Prize dataset", runInit},
	{"load", "run the ETL into DuckDB", runLoad},
	{"recommend", "train a model and print recommended movies", runRecommend},
	{"status", "print table counts, the last ETL run and saved models", runStatus},
	{"serve", "run the HTTP API", runServe},
	{"clean", "delete the data and output directories", runClean},
}

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mediabridge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default: $CONFIG_PATH or ./config.yaml)")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() { usage(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *showVersion {
		fmt.Fprintf(stdout, "mediabridge %s (%s)\n", version, commit)
		return 0
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 1
	}

	name := fs.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "mediabridge: unknown command %q\n\n", name)
		usage(stderr)
		return 1
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(stderr, "mediabridge: %v\n", err)
		return 1
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    stderr,
	})

	a := &app{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	err = cmd.run(ctx, a, fs.Args()[1:])
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 1
	default:
		logging.Error().Err(err).Str("command", name).Msg("Command failed")
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mediabridge [-config file] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
}

// newFlagSet returns a per-command flag set that reports errors instead of
// exiting.
func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("mediabridge "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseFlags parses args and rejects positional arguments. The flag package
// has already printed the problem when this returns errUsage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return errUsage
	}
	return nil
}
