// Package app wires the predicate, closure loader and the selected consumer
// into a single run.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/val3rkq/osmbounds/internal/closure"
	"github.com/val3rkq/osmbounds/internal/config"
	"github.com/val3rkq/osmbounds/internal/emit"
	"github.com/val3rkq/osmbounds/internal/metrics"
	"github.com/val3rkq/osmbounds/internal/predicate"
	"github.com/val3rkq/osmbounds/internal/sink"
	"github.com/val3rkq/osmbounds/internal/source"
	"github.com/val3rkq/osmbounds/internal/stats"
)

type Mode int

const (
	// ModeRecords writes target relations as JSON lines.
	ModeRecords Mode = iota
	// ModeStats writes the boundary histogram.
	ModeStats
)

func (m Mode) String() string {
	if m == ModeStats {
		return "stats"
	}
	return "records"
}

type Options struct {
	InFile  string
	OutFile string
	Mode    Mode
}

type Deps struct {
	Config  config.Config
	Logger  *zerolog.Logger
	Metrics *metrics.Provider
	// Stdout receives output when no out file is set; os.Stdout if nil.
	Stdout io.Writer
	// Source replaces the PBF decoder selected by Config when set.
	Source source.Source
}

// Run executes one invocation. The metrics textfile, when configured, is
// written on both success and failure.
func Run(ctx context.Context, opts Options, deps Deps) (err error) {
	log := deps.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	defer func() {
		if err == nil {
			deps.Metrics.MarkSuccess()
		}
		if werr := deps.Metrics.WriteTextfile(deps.Config.MetricsFile); werr != nil {
			log.Warn().Err(werr).Str("path", deps.Config.MetricsFile).Msg("metrics textfile not written")
		}
	}()

	src := deps.Source
	if src == nil {
		src, err = source.Open(source.Options{
			Path:    opts.InFile,
			Decoder: deps.Config.Decoder,
			Procs:   deps.Config.DecoderProcs,
			Logger:  log,
		})
		if err != nil {
			return err
		}
	}

	out, err := sink.Open(opts.OutFile, deps.Config.OutputCharset, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	eval := predicate.New(deps.Config.Allowlists())
	pred := eval.Candidate()
	if opts.Mode == ModeStats {
		pred = eval.Target()
	}

	log.Info().
		Str("in_file", opts.InFile).
		Str("out", out.Path()).
		Str("mode", opts.Mode.String()).
		Msg("unpacking relations")

	loader := &closure.Loader{
		Source:    src,
		Logger:    log,
		Metrics:   deps.Metrics,
		MaxPasses: deps.Config.MaxPasses,
	}
	rs, _, err := loader.Load(ctx, pred)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.InFile, err)
	}

	switch opts.Mode {
	case ModeStats:
		log.Info().Msg("gathering stats")
		entries := stats.Summarize(rs, eval)
		for _, e := range entries {
			deps.Metrics.ObserveBucket(e.Key.String(), e.Count)
		}
		if err := stats.WriteReport(out, entries); err != nil {
			return err
		}
		log.Info().Int("buckets", len(entries)).Msg("stats written")
	case ModeRecords:
		n, err := emit.Emit(rs, eval, out)
		deps.Metrics.ObserveEmitted(n)
		if err != nil {
			return err
		}
		log.Info().Int("records", n).Msg("records written")
	default:
		return fmt.Errorf("unknown mode %d", opts.Mode)
	}
	return nil
}
