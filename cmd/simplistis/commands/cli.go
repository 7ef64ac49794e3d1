// Package commands defines the simplistis command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/simplistis/internal/build"
	"git.home.luguber.info/inful/simplistis/internal/config"
	"git.home.luguber.info/inful/simplistis/internal/logfields"
	"git.home.luguber.info/inful/simplistis/internal/metrics"
)

// Global is bound into Run; the logger is filled in once configuration is
// loaded so the caller can report errors through it.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// CLI is the root command: simplistis [flags] <template-root> <output-root>.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (default: ${config_file} when present)" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	LogFormat   string           `name:"log-format" help:"Log format: text or json"`
	FrontMatter string           `name:"front-matter" help:"Front matter format: toml or yaml"`
	Workers     *int             `short:"w" help:"Render workers (0 = number of CPUs)"`
	OnError     string           `name:"on-error" help:"Render failure policy: continue or abort"`
	DryRun      bool             `name:"dry-run" help:"Build and print the page tree without writing"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics here after the build" type:"path"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	TemplateRoot string `arg:"" name:"template-root" help:"Directory holding ${index_file} and the page template" type:"path"`
	OutputRoot   string `arg:"" name:"output-root" help:"Directory that receives the generated HTML" type:"path"`
}

// Vars are the interpolation variables referenced in help strings.
func Vars() kong.Vars {
	return kong.Vars{
		"config_file": config.DefaultFile,
		"index_file":  config.Default().Layout.IndexFile,
	}
}

func (c *CLI) overrides() config.Overrides {
	return config.Overrides{
		Verbose:     c.Verbose,
		LogFormat:   c.LogFormat,
		FrontMatter: c.FrontMatter,
		Workers:     c.Workers,
		OnError:     c.OnError,
	}
}

// Run loads configuration, builds the site and writes metrics.
func (c *CLI) Run(g *Global) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Apply(c.overrides()); err != nil {
		return err
	}

	logger := cfg.Logging.NewLogger(g.Stderr)
	slog.SetDefault(logger)
	g.Logger = logger
	for _, w := range cfg.Warnings() {
		logger.Warn("Configuration adjusted", slog.String("detail", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prom.NewRegistry()
	svc := build.NewService(cfg, logger).WithRecorder(metrics.NewPrometheusRecorder(reg))
	result, err := svc.Run(ctx, build.Request{
		SourceDir: c.TemplateRoot,
		OutputDir: c.OutputRoot,
		DryRun:    c.DryRun,
	})

	if werr := metrics.WriteTextfile(c.MetricsFile, reg); werr != nil {
		logger.Warn("Failed to write metrics file", logfields.Path(c.MetricsFile), logfields.Error(werr))
	}
	if err != nil {
		return err
	}

	if c.DryRun {
		return result.Tree.Fprint(g.Stdout)
	}
	_, err = fmt.Fprintf(g.Stdout, "Built %d pages into %s in %s\n",
		len(result.Report.Rendered), result.OutputPath, result.Duration.Round(time.Millisecond))
	return err
}
