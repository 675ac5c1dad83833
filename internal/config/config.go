package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/val3rkq/osmbounds/internal/predicate"
)

type Config struct {
	LogLevel      string
	LogConsole    bool
	Decoder       string
	DecoderProcs  int
	OutputCharset string
	MetricsFile   string
	MaxPasses     int
	AdminLevels   []string
	BoundaryTypes []string
}

func FromEnv() Config {
	defaults := predicate.DefaultAllowlists()

	procs := getint("OSMBOUNDS_DECODER_PROCS", runtime.GOMAXPROCS(0))
	if procs < 1 {
		procs = 1
	}
	maxPasses := getint("OSMBOUNDS_MAX_PASSES", 0)
	if maxPasses < 0 {
		maxPasses = 0
	}

	return Config{
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogConsole:    getbool("LOG_CONSOLE", false),
		Decoder:       getenv("OSMBOUNDS_DECODER", ""),
		DecoderProcs:  procs,
		OutputCharset: getenv("OSMBOUNDS_OUTPUT_CHARSET", "utf-8"),
		MetricsFile:   getenv("OSMBOUNDS_METRICS_FILE", ""),
		MaxPasses:     maxPasses,
		AdminLevels:   getlist("OSMBOUNDS_ADMIN_LEVELS", defaults.AdminLevels),
		BoundaryTypes: getlist("OSMBOUNDS_BOUNDARY_TYPES", defaults.BoundaryTypes),
	}
}

func (c Config) Allowlists() predicate.Allowlists {
	return predicate.Allowlists{AdminLevels: c.AdminLevels, BoundaryTypes: c.BoundaryTypes}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

// parse "administrative, state border" into its trimmed, non-empty items;
// inner spaces are kept since some boundary values contain them
func getlist(k string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	var out []string
	for p := range strings.SplitSeq(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
