// Command draft streams patent-claim drafts from the relay to the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/davidbz/claimrelay/internal/client"
	"github.com/davidbz/claimrelay/internal/config"
	"github.com/davidbz/claimrelay/internal/domain"
	"github.com/davidbz/claimrelay/internal/observability"
	"github.com/davidbz/claimrelay/internal/prompt"
	"github.com/davidbz/claimrelay/internal/provider/openai"
	"github.com/davidbz/claimrelay/internal/store"
)

func main() {
	cfg := config.Load()

	if _, err := observability.InitLogger(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := newApp(cfg, os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "generate patent-claim drafts through the streaming relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "relay-url",
				Usage: "relay endpoint",
				Value: cfg.Client.RelayURL,
			},
			&cli.StringFlag{
				Name:  "store-driver",
				Usage: "submission store: none, sqlite, postgres or redis",
				Value: cfg.Store.Driver,
			},
			&cli.StringFlag{
				Name:  "store-dsn",
				Usage: "sqlite path or postgres DSN",
				Value: cfg.Store.DSN,
			},
		},
		Commands: []*cli.Command{
			generateCommand(cfg, stdout, stderr),
			historyCommand(cfg, stdout),
		},
	}
}

func generateCommand(cfg *config.Config, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "stream a draft for an invention description",
		ArgsUsage: "<description>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "invention-type", Usage: "kind of invention, e.g. device or method"},
			&cli.StringFlag{Name: "tech-field", Usage: "technology field"},
			&cli.StringFlag{Name: "key-features", Usage: "key features of the invention"},
			&cli.BoolFlag{Name: "direct", Usage: "call the upstream API directly instead of the relay"},
			&cli.BoolFlag{Name: "complete", Usage: "request the whole draft in one response"},
			&cli.BoolFlag{Name: "html", Usage: "print the final draft as sanitized HTML"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req := &domain.DraftRequest{
				Description:   strings.Join(cmd.Args().Slice(), " "),
				InventionType: cmd.String("invention-type"),
				TechField:     cmd.String("tech-field"),
				KeyFeatures:   cmd.String("key-features"),
			}

			drafts, closeStore, err := newDraftService(ctx, cfg, cmd.Root(), cmd.Bool("direct"))
			if err != nil {
				return err
			}
			defer closeStore()

			var result *domain.DraftResult
			if cmd.Bool("complete") {
				result, err = drafts.Complete(ctx, req)
			} else {
				result, err = drafts.Generate(ctx, req, func(token string) {
					fmt.Fprint(stdout, token)
				})
				fmt.Fprintln(stdout)
			}
			if err != nil {
				return errors.New(domain.UserMessage(err))
			}
			if result.Unavailable {
				return errors.New(result.Draft)
			}
			draft := result.Draft

			if cmd.Bool("html") {
				html, renderErr := domain.RenderHTML(draft)
				if renderErr != nil {
					fmt.Fprintf(stderr, "failed to render draft: %v\n", renderErr)
					return nil
				}
				fmt.Fprintln(stdout, html)
			} else if cmd.Bool("complete") {
				fmt.Fprintln(stdout, draft)
			}
			return nil
		},
	}
}

func historyCommand(cfg *config.Config, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "list recent submissions, or show one by id",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "limit", Usage: "number of submissions to list", Value: "10"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			drafts, closeStore, err := newDraftService(ctx, cfg, cmd.Root(), false)
			if err != nil {
				return err
			}
			defer closeStore()

			encoder := json.NewEncoder(stdout)
			encoder.SetIndent("", "  ")

			if id := cmd.Args().First(); id != "" {
				sub, err := drafts.Submission(ctx, id)
				if errors.Is(err, domain.ErrNotFound) {
					return errors.New("submission not found")
				}
				if err != nil {
					return err
				}
				return encoder.Encode(sub)
			}

			limit, err := strconv.Atoi(cmd.String("limit"))
			if err != nil || limit < 1 {
				return errors.New("limit must be a positive integer")
			}

			subs, err := drafts.RecentSubmissions(ctx, limit)
			if err != nil {
				return err
			}
			return encoder.Encode(subs)
		},
	}
}

// newDraftService wires the draft service for one CLI invocation. The
// returned func closes the store.
func newDraftService(
	ctx context.Context,
	cfg *config.Config,
	root *cli.Command,
	direct bool,
) (*domain.DraftService, func(), error) {
	builder, err := prompt.NewBuilder(&cfg.Prompt)
	if err != nil {
		return nil, nil, err
	}

	storeCfg := cfg.Store
	storeCfg.Driver = root.String("store-driver")
	storeCfg.DSN = root.String("store-dsn")
	submissions, err := store.New(ctx, &storeCfg)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if submissions != nil {
			_ = submissions.Close()
		}
	}

	var source domain.StreamSource
	var completer domain.Completer

	if provider, providerErr := openai.NewProvider(cfg.OpenAI); providerErr == nil {
		completer = provider
		if direct {
			source = provider
		}
	} else if direct {
		closeStore()
		return nil, nil, providerErr
	}

	if source == nil {
		clientCfg := cfg.Client
		clientCfg.RelayURL = root.String("relay-url")
		relayClient, clientErr := client.NewClient(&clientCfg)
		if clientErr != nil {
			closeStore()
			return nil, nil, clientErr
		}
		source = relayClient
	}

	drafts := domain.NewDraftService(builder, source, completer, submissions, observability.NewEventBus(), cfg.Retry.Policy())
	return drafts, closeStore, nil
}
