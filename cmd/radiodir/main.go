package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/grafana/dskit/flagext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"github.com/spf13/pflag"

	"github.com/zachfi/zkit/pkg/tracing"

	"github.com/zachfi/radiodir/app"
)

const appName = "radiodir"

// Version is set via build flag -ldflags -X main.Version
var (
	Version  string
	Branch   string
	Revision string
)

func init() {
	version.Version = Version
	version.Branch = Branch
	version.Revision = Revision
	prometheus.MustRegister(version.NewCollector(appName))
}

func main() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	// stdout carries the playlist
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(os.Args[1:], flag.CommandLine, pflag.CommandLine, level)
	if err != nil {
		logger.Error("failed to load config file", "err", err)
		os.Exit(1)
	}

	shutdownTracer, err := tracing.InstallOpenTelemetryTracer(&cfg.Tracing, logger, appName, Version)
	if err != nil {
		logger.Error("error initialising tracer", "err", err)
		os.Exit(1)
	}

	a, err := app.New(*cfg, *logger)
	if err != nil {
		logger.Error("failed to create", "app", appName, "err", err)
		shutdownTracer()
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		logger.Error("error running", "app", appName, "err", err)
		shutdownTracer()
		os.Exit(1)
	}

	shutdownTracer()
}

// loadConfig applies defaults, then the YAML file named by --config.file,
// then the command line. The playlist flags are also available in their
// short forms: -u/--url, -o/--output and -d/--delay.
func loadConfig(args []string, goFlags *flag.FlagSet, flags *pflag.FlagSet, level *slog.LevelVar) (*app.Config, error) {
	const (
		configFileOption = "config.file"
	)

	var configFile string

	config := &app.Config{}

	// first get the config file
	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	fs.StringVar(&configFile, configFileOption, "", "")
	_ = fs.Parse(args)

	// load config defaults and register flags
	config.RegisterFlagsAndApplyDefaults("", goFlags)
	goFlags.TextVar(level, "log.level", level, "Log level: debug, info, warn or error")

	// overlay with config file if provided
	if configFile != "" {
		if err := app.LoadConfig(configFile, config); err != nil {
			return nil, fmt.Errorf("failed to load configFile %s: %w", configFile, err)
		}
	}

	// overlay with cli
	flagext.IgnoredFlag(goFlags, configFileOption, "Configuration file to load")
	flags.StringVarP(&config.Playlist.URL, "url", "u", config.Playlist.URL, "Station directory URL (same as --playlist.url)")
	flags.StringVarP(&config.Playlist.Output, "output", "o", config.Playlist.Output, "Output file (same as --playlist.output)")
	flags.Float64VarP(&config.Playlist.Delay, "delay", "d", config.Playlist.Delay, "Seconds to wait before each playlist fetch (same as --playlist.delay)")
	flags.AddGoFlagSet(goFlags)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	return config, nil
}
