package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/renderinc/tweet-explorer/internal/app"
	"github.com/renderinc/tweet-explorer/internal/search"
	"github.com/renderinc/tweet-explorer/internal/web"
)

const shutdownTimeout = 10 * time.Second

func loadApp(c *cli.Context) (*app.App, error) {
	cfg, logger := state(c)
	return app.Load(c.Context, cfg, logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveCommand(c *cli.Context) error {
	cfg, logger := state(c)
	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := web.NewServer(a.Search, a.Stats, a.Registry, web.Config{
		FiltersCacheTTL: cfg.FiltersCacheTTL,
		RequestTimeout:  cfg.RequestTimeout,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func searchCommand(c *cli.Context) error {
	req := search.NewSearchRequest()
	req.Text = strings.Join(c.Args().Slice(), " ")
	req.TopK = c.Int("top-k")
	req.Page = c.Int("page")
	req.PageSize = c.Int("page-size")
	req.Mode = search.Mode(c.String("mode"))
	req.Weight = c.Float64("weight")
	req.Filters = criteriaFromFlags(c, true)

	a, err := loadApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Search.Search(c.Context, req)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, res)
}

func queryCommand(c *cli.Context) error {
	req := search.NewQueryRequest(strings.Join(c.Args().Slice(), " "))
	req.TopK = c.Int("top-k")
	req.Filters = criteriaFromFlags(c, false)

	// Reject before loading anything
	if err := req.Validate(); err != nil {
		return err
	}

	a, err := loadApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Search.Query(c.Context, req)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, res)
}

func filtersCommand(c *cli.Context) error {
	a, err := loadApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.Search.FilterOptions(c.Context)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, opts)
}

func statsCommand(c *cli.Context) error {
	a, err := loadApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.Stats(c.Context)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, stats)
}

func getPostCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("post id required")
	}

	a, err := loadApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	post, err := a.Search.Post(c.Context, id)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post not found: %s", id)
	}
	return writeJSON(c.App.Writer, post)
}
