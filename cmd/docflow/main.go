// Command docflow drives the document validation workflow from a terminal.
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

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/config"
	"github.com/garyjia/docflow/internal/container"
	"github.com/garyjia/docflow/internal/session"
	apperrors "github.com/garyjia/docflow/pkg/errors"
	"github.com/garyjia/docflow/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("docflow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	token := fs.String("token", "", "session token (overrides configuration)")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return 2
	}

	path := *configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := utils.NewCLILogger(*verbose)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *token != "" {
		ctx = session.WithToken(ctx, *token)
	}

	containerCfg := cfg.ToContainerConfig()
	containerCfg.DisableWorkers = true

	c, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create container: %v\n", err)
		return 1
	}
	if err := c.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("Container close failed", zap.Error(err))
		}
	}()

	a := &app{
		api:        c.API(),
		unread:     c.API(),
		identity:   c.Session(),
		notifier:   c.Notifications(),
		exports:    c.Reports(),
		dispatcher: c.Dispatcher(),
		logger:     c.FlowLogger(),
		out:        stdout,
	}

	return exitCode(a.dispatch(ctx, fs.Arg(0), fs.Args()[1:]), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "docflow: %v\n\n", err)
		printUsage(stderr)
		return 2
	case apperrors.IsAuth(err):
		fmt.Fprintf(stderr, "docflow: %s\n", apperrors.UserMessage(err, "session invalide"))
		return 3
	default:
		fmt.Fprintf(stderr, "docflow: %s\n", apperrors.UserMessage(err, err.Error()))
		return 1
	}
}
