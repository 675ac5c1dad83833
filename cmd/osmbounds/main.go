// Command osmbounds extracts administrative boundary relations, and every
// object they reference, from an OSM PBF extract.
//
//	osmbounds --in-file region.osm.pbf [--out-file boundaries.jsonl]
//	osmbounds --in-file region.osm.pbf stats
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

	"github.com/val3rkq/osmbounds/internal/app"
	"github.com/val3rkq/osmbounds/internal/apperr"
	"github.com/val3rkq/osmbounds/internal/config"
	"github.com/val3rkq/osmbounds/internal/logger"
	"github.com/val3rkq/osmbounds/internal/metrics"
)

var Version = "dev"

const usage = `Usage: osmbounds --in-file <file.osm.pbf> [--out-file <path>] [stats]

Without a command, boundary relations are written as JSON lines.
The stats command prints "<boundary> <count>" lines instead.

Flags:
`

var errUsage = errors.New("usage error")

func parseArgs(args []string, stderr io.Writer) (app.Options, error) {
	var opts app.Options

	fs := flag.NewFlagSet("osmbounds", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.InFile, "in-file", "", "PBF file to read")
	fs.StringVar(&opts.InFile, "i", "", "shorthand for --in-file")
	fs.StringVar(&opts.OutFile, "out-file", "", "output file (default stdout)")
	fs.StringVar(&opts.OutFile, "o", "", "shorthand for --out-file")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		if rest[0] != "stats" {
			return opts, fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
		}
		opts.Mode = app.ModeStats
		// flags may follow the command too
		if err := fs.Parse(rest[1:]); err != nil {
			return opts, err
		}
		if len(fs.Args()) > 0 {
			return opts, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Args()[0])
		}
	}
	if opts.InFile == "" {
		return opts, fmt.Errorf("%w: --in-file is required", errUsage)
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			fmt.Fprint(stderr, usage)
		}
		return 2
	}

	cfg := config.FromEnv()
	log := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "osmbounds",
	}, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx, opts, app.Deps{
		Config:  cfg,
		Logger:  &log,
		Metrics: metrics.New(Version),
		Stdout:  stdout,
	})
	if err != nil {
		ev := log.Error().Err(err)
		if kind, ok := apperr.KindOf(err); ok {
			ev = ev.Str("kind", string(kind))
		}
		ev.Msg("run failed")
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
