package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rocket/internal/build"
	"git.home.luguber.info/inful/rocket/internal/config"
	"git.home.luguber.info/inful/rocket/internal/scaffold"
	"git.home.luguber.info/inful/rocket/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.toml"`
	Verbose bool             `short:"v" help:"Increase logging verbosity"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct{} `cmd:"" help:"Build the Rocket project in the current working directory"`

	New struct {
		Name string `arg:"" help:"Name of the project directory to create"`
	} `cmd:"" help:"Create an empty Rocket project"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("rocket"),
		kong.Description("The Rocket documentation build system."),
		kong.Vars{"version": version.Version},
	)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "build":
		if err := runBuild(); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}

	case "new <name>":
		if err := scaffold.Init(CLI.New.Name); err != nil {
			slog.Error("Project creation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Project created", "name", CLI.New.Name)

	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

func runBuild() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	builder, err := build.New(cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return builder.Run(runCtx)
}
