package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/renderinc/tweet-explorer/internal/config"
	"github.com/renderinc/tweet-explorer/internal/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tweet-explorer",
		Usage: "Semantic search and LLM question answering over a tweet corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Optional .env file loaded before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding tweets.db, tweets.index and id_map.json (overrides DATA_DIR and the per-file paths)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides LOG_LEVEL",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (console, json); overrides LOG_FORMAT",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Host to bind to (overrides HOST)",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port to listen on (overrides PORT)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the corpus; without text, list posts matching the filters",
				ArgsUsage: "[text...]",
				Action:    searchCommand,
				Flags:     append(searchFlags(), filterFlags(true)...),
			},
			{
				Name:      "query",
				Usage:     "Ask the LLM a question using matching posts as context",
				ArgsUsage: "<text...>",
				Action:    queryCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Candidates retrieved from the vector index",
						Value: 100,
					},
				}, filterFlags(false)...),
			},
			{
				Name:   "filters",
				Usage:  "List the distinct filter values in the corpus",
				Action: filtersCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show store and index statistics",
				Action: statsCommand,
			},
			{
				Name:      "get-post",
				Usage:     "Print one stored post",
				ArgsUsage: "<id>",
				Action:    getPostCommand,
			},
		},
	}
}

const (
	configKey = "config"
	loggerKey = "logger"
)

// setup resolves configuration and the logger once for every command
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}

	if c.IsSet("data-dir") {
		cfg.UseDataDir(c.String("data-dir"))
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, c.App.ErrWriter)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	c.App.Metadata[loggerKey] = logger
	return nil
}

func state(c *cli.Context) (*config.Config, zerolog.Logger) {
	cfg, _ := c.App.Metadata[configKey].(*config.Config)
	logger, _ := c.App.Metadata[loggerKey].(zerolog.Logger)
	return cfg, logger
}
