// Package cmd contains helpers common to all CLI implementations.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	charm "github.com/charmbracelet/log"
	"github.com/wikihop/wikihop/internal"
)

// PGConfig configures an optional Postgres connection for the persistent
// cache layer. Leaving the host empty keeps the cache in memory only.
type PGConfig struct {
	PostgresHost         string `default:"" env:"POSTGRES_HOST" help:"Postgres host. Empty disables the persistent cache."`
	PostgresUser         string `default:"postgres" env:"POSTGRES_USER" help:"Postgres user."`
	PostgresPassword     string `xor:"db-auth" env:"POSTGRES_PASSWORD" help:"Postgres password."`
	PostgresPasswordFile []byte `type:"filecontent" xor:"db-auth" env:"POSTGRES_PASSWORD_FILE" help:"File with the Postgres password."`
	PostgresPort         int    `default:"5432" env:"POSTGRES_PORT" help:"Postgres port."`
	PostgresDatabase     string `default:"wikihop" env:"POSTGRES_DATABASE" help:"Postgres database to use."`
}

// DSN returns the database's DSN based on the provided flags, or "" if no
// host was configured.
func (c *PGConfig) DSN() string {
	if c.PostgresHost == "" {
		return ""
	}
	if len(c.PostgresPasswordFile) > 0 {
		c.PostgresPassword = string(bytes.TrimSpace(c.PostgresPasswordFile))
	}

	dsn := fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDatabase,
		c.PostgresHost,
	)

	// Unix sockets don't need a port.
	if !filepath.IsAbs(c.PostgresHost) {
		dsn = fmt.Sprintf("%s port=%d", dsn, c.PostgresPort)
	}

	return dsn
}

// LogConfig configures logging.
type LogConfig struct {
	Verbose bool `env:"VERBOSE" help:"increase log verbosity"`
}

// Run sets logging to DEBUG if verbose is enabled.
func (c *LogConfig) Run() error {
	if c.Verbose {
		internal.SetLogLevel(charm.DebugLevel)
	}
	return nil
}

// SearchFlags tune the search engine.
type SearchFlags struct {
	BatchSize      int           `default:"50" env:"BATCH_SIZE" help:"Titles per upstream request."`
	Poll           time.Duration `default:"100ms" env:"POLL" help:"How long a round waits on in-flight batches before re-checking state."`
	RequestTimeout time.Duration `default:"2s" env:"REQUEST_TIMEOUT" help:"Timeout for each upstream request."`
	MaxInFlight    int           `default:"64" env:"MAX_IN_FLIGHT" help:"Maximum concurrent upstream batches. 0 is unbounded."`
	MaxDepth       int           `default:"0" env:"MAX_DEPTH" help:"Maximum link hops out from either endpoint. 0 is unlimited."`
	RPM            int           `default:"0" env:"RPM" help:"Maximum upstream requests per minute. 0 is unthrottled."`
	Languages      string        `default:"" env:"LANGUAGES" help:"YAML file mapping language codes to API endpoints."`
	UserAgent      string        `env:"USER_AGENT" help:"Override the User-Agent sent upstream."`
}

// Config materializes the engine config from flags.
func (f *SearchFlags) Config() (internal.SearchConfig, error) {
	cfg := internal.DefaultSearchConfig()
	cfg.BatchSize = f.BatchSize
	cfg.Poll = f.Poll
	cfg.RequestTimeout = f.RequestTimeout
	cfg.MaxInFlight = f.MaxInFlight
	cfg.MaxDepth = f.MaxDepth
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.Languages != "" {
		if err := cfg.LoadLanguages(f.Languages); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Bust allows manually busting cached search results from the CLI.
type Bust struct {
	PGConfig
	LogConfig

	From string `arg:"" help:"Start article."`
	To   string `arg:"" help:"End article."`
	Lang string `default:"en" help:"Language edition of both articles."`
}

// Run busts a cache key.
func (b *Bust) Run() error {
	_ = b.LogConfig.Run()
	ctx := context.Background()

	cache, err := internal.NewCache(ctx, b.DSN())
	if err != nil {
		return err
	}

	return cache.Expire(ctx, internal.SearchKey(b.From, b.To, b.Lang))
}

func init() {
	// Limit our memory to 90% of what's free. This affects cache sizes.
	_, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithLogger(slog.Default()),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)
	if err != nil {
		panic(err)
	}
}
