package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "recipebox",
		Usage: "Match recipe ingredient lines against a controlled ingredient vocabulary",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: search ., ./config, /etc/recipebox)",
				Sources: cli.EnvVars("RECIPEBOX_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			matchCommand(),
			seedCommand(),
			migrateCommand(),
			mcpCommand(),
		},
		DefaultCommand: "serve",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "recipebox: %v\n", err)
		os.Exit(1)
	}
}
