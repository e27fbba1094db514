package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/recipebox/backend/config"
	"github.com/recipebox/backend/internal/client"
	httpDelivery "github.com/recipebox/backend/internal/delivery/http"
	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/infrastructure/postgres"
	"github.com/recipebox/backend/internal/infrastructure/seed"
	"github.com/recipebox/backend/internal/mcpserver"
	"github.com/recipebox/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, serve)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	handler := httpDelivery.NewHandler(a.search, a.store, a.logger)
	router := httpDelivery.SetupRouter(a.cfg, handler, a.logger)

	addr := fmt.Sprintf(":%s", a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("starting recipebox",
		zap.String("version", httpDelivery.Version),
		zap.String("word_list_version", usecase.WordListVersion),
		zap.String("environment", a.cfg.Server.Environment),
		zap.String("driver", a.cfg.Database.Driver),
		zap.String("cache", a.cfg.Cache.Type),
		zap.Bool("auth", a.cfg.Auth.Enabled()),
	)

	g, gCtx := errgroup.WithContext(ctx)

	if a.cfg.Database.Driver == config.DriverFile && a.cfg.Vocabulary.Watch {
		g.Go(func() error {
			return seed.Watch(gCtx, a.cfg.Vocabulary.SeedFile, a.logger, a.replaceVocabulary)
		})
	}

	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

func matchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Match ingredient lines from a file or stdin",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "remote",
				Usage: "Base URL of a running recipebox server; matches locally when empty",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token for --remote",
				Sources: cli.EnvVars("RECIPEBOX_AUTH_TOKEN"),
			},
			&cli.BoolFlag{
				Name:  "candidates",
				Usage: "Print extracted candidates instead of matches",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lines, err := readLines(cmd.Args().First())
			if err != nil {
				return err
			}

			if remote := cmd.String("remote"); remote != "" {
				c := client.New(remote, client.Options{Token: cmd.String("token")})
				if cmd.Bool("candidates") {
					extractions, err := c.ExtractCandidates(ctx, lines)
					if err != nil {
						return err
					}
					printExtractions(os.Stdout, extractions)
					return nil
				}
				result, err := c.SearchIngredients(ctx, lines)
				if err != nil {
					return err
				}
				printResult(os.Stdout, result)
				return nil
			}

			return withApp(ctx, cmd, func(ctx context.Context, a *app) error {
				if cmd.Bool("candidates") {
					extractions, err := a.search.Extract(ctx, lines)
					if err != nil {
						return err
					}
					printExtractions(os.Stdout, extractions)
					return nil
				}
				result, err := a.search.SearchIngredients(ctx, lines)
				if err != nil {
					return err
				}
				printResult(os.Stdout, result)
				return nil
			})
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Replace the stored vocabulary with a seed file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Seed file (default: vocabulary.seed_file)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app) error {
				path := cmd.String("file")
				if path == "" {
					path = a.cfg.Vocabulary.SeedFile
				}
				if path == "" {
					return errors.New("no seed file given")
				}

				vocab, warnings, err := seed.Load(path)
				if err != nil {
					return err
				}
				a.logWarnings(warnings)

				if err := a.replaceVocabulary(ctx, vocab); err != nil {
					return fmt.Errorf("failed to load vocabulary: %w", err)
				}

				stats, err := a.store.Stats(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("vocabulary seeded",
					zap.String("file", path),
					zap.Int("ingredients", stats.Ingredients),
					zap.Int("aliases", stats.Aliases),
					zap.Int("two_word_phrases", stats.TwoWordPhrases),
				)
				return nil
			})
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the postgres schema migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate needs the postgres driver, configured: %s", a.cfg.Database.Driver)
			}
			return postgres.Migrate(a.cfg.Database.DSN, a.logger)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the matching tools over MCP stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app) error {
				return mcpserver.New(a.search, httpDelivery.Version).ServeStdio()
			})
		},
	}
}

// readLines reads non-empty lines from path, or stdin when path is empty or "-"
func readLines(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func printResult(w io.Writer, result *domain.SearchResult) {
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()
	name := color.New(color.FgGreen).SprintFunc()
	alias := color.New(color.FgYellow).SprintFunc()
	miss := color.New(color.FgRed).SprintFunc()

	for _, group := range result.Matched {
		fmt.Fprintln(w, heading(group.Category))
		for _, m := range group.Matches {
			line := fmt.Sprintf("  %s  <- %q", name(m.Name), m.SourceLine)
			if m.Kind == domain.MatchKindAlias {
				line += " " + alias("(alias: "+m.MatchedAlias+")")
			}
			fmt.Fprintln(w, line)
		}
	}

	if len(result.Unmatched) > 0 {
		fmt.Fprintln(w, heading("unmatched"))
		for _, line := range result.Unmatched {
			fmt.Fprintf(w, "  %s\n", miss(line))
		}
	}

	fmt.Fprintf(w, "\n%d matched, %d unmatched\n", result.TotalMatched, result.TotalUnmatched)
}

func printExtractions(w io.Writer, extractions []usecase.Extraction) {
	stage := color.New(color.FgMagenta).SprintFunc()
	for _, x := range extractions {
		fmt.Fprintf(w, "%s %s\n", x.Line, stage("["+x.Stage+"]"))
		for i, group := range x.Groups {
			fmt.Fprintf(w, "  %d: %s\n", i+1, strings.Join(group, " | "))
		}
	}
}
