// Package main runs a link-chain search server over Wikipedia's query APIs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/wikihop/wikihop/cmd"
	"github.com/wikihop/wikihop/internal"
)

// cli contains our command-line flags.
type cli struct {
	Serve  server `cmd:"" help:"Run an HTTP server."`
	Search search `cmd:"" help:"Run one search from the command line."`

	Bust cmd.Bust `cmd:"" help:"Bust cached search results."`
}

type server struct {
	cmd.PGConfig
	cmd.LogConfig
	cmd.SearchFlags

	Port   int  `default:"8788" env:"PORT" help:"Port to serve traffic on."`
	Warmup bool `default:"true" env:"WARMUP" help:"Open connections to every language endpoint on startup."`
}

func (s *server) Run() error {
	_ = s.LogConfig.Run()

	ctx := context.Background()

	cfg, err := s.Config()
	if err != nil {
		return err
	}

	cache, err := internal.NewCache(ctx, s.DSN())
	if err != nil {
		return fmt.Errorf("setting up cache: %w", err)
	}

	upstream, err := internal.NewUpstream(cfg, s.RPM)
	if err != nil {
		return err
	}

	provider := internal.NewWikiProvider(cfg, cache, upstream)
	if s.Warmup {
		go provider.Warmup(ctx)
	}

	searcher := internal.NewSearcher(provider, cfg)
	ctrl, err := internal.NewController(searcher, cache)
	if err != nil {
		return err
	}

	h := internal.NewHandler(ctrl)
	mux := internal.NewMux(h)

	mux = chimiddleware.RequestSize(1024)(mux) // Limit request bodies.
	mux = internal.Requestlogger{}.Wrap(mux)   // Log requests.
	mux = chimiddleware.RequestID(mux)         // Include a request ID header.
	mux = chimiddleware.Recoverer(mux)         // Recover from panics.

	addr := fmt.Sprintf(":%d", s.Port)
	server := &http.Server{
		Handler:  mux,
		Addr:     addr,
		ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}

	go func() {
		slog.Info("listening on " + addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			internal.Log(ctx).Error(err.Error())
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown

	slog.Info("shutting down http server")
	_ = server.Shutdown(ctx)

	slog.Info("au revoir!")

	return nil
}

type search struct {
	cmd.LogConfig
	cmd.SearchFlags

	From string `arg:"" help:"Start article."`
	To   string `arg:"" help:"End article."`
	Lang string `default:"en" help:"Language edition of both articles."`
}

func (s *search) Run() error {
	_ = s.LogConfig.Run()

	ctx := context.WithValue(context.Background(),
		chimiddleware.RequestIDKey, "cli-"+uuid.NewString()[:8])

	cfg, err := s.Config()
	if err != nil {
		return err
	}

	upstream, err := internal.NewUpstream(cfg, s.RPM)
	if err != nil {
		return err
	}

	provider := internal.NewWikiProvider(cfg, nil, upstream)
	searcher := internal.NewSearcher(provider, cfg)

	res, err := searcher.Search(ctx, s.From, s.To, s.Lang)
	if err != nil {
		return err
	}

	for i, step := range res.Steps() {
		fmt.Printf("%d. %s\n", i+1, step)
	}
	fmt.Printf("\n%d steps, %d requests, %s\n", len(res.Path), res.Requests, res.Elapsed.Round(time.Millisecond))

	return nil
}

func main() {
	kctx := kong.Parse(&cli{})
	err := kctx.Run()
	if err != nil {
		internal.Log(context.Background()).Error("fatal", "err", err)
		os.Exit(1)
	}
}
