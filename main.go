/*
This is an example of application that will use the
engine package to run a demo session
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spaghettifunk/fusen/engine"
	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/testbed"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if kind := cmd.String("provider"); kind != "" {
		cfg.Provider.Kind = kind
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level, err := core.ParseLogLevel(cfg.Application.LogLevel)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)
	core.LogInfo("starting %s with the %s provider", cfg.Application.Name, cfg.Provider.Kind)

	game, err := testbed.NewGame(cfg)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gCtx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return engine.RunGame(runCtx, game)
	})

	// signal channel to capture system calls
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			core.LogInfo("received %s, shutting down", sig)
			cancel()
		case <-runCtx.Done():
		}
		return nil
	})

	return g.Wait()
}

func main() {
	cmd := &cli.Command{
		Name:   "fusen",
		Usage:  "Mirror reconstructed scene meshes and place markers on them",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
				Sources: cli.EnvVars("FUSEN_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Geometry provider, scripted or directory",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		core.LogFatal("application error: %s", err)
	}
}
