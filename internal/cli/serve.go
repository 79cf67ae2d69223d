package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/schematiq/schematiq/internal/server"
	"github.com/schematiq/schematiq/pkg/cache"
	"github.com/schematiq/schematiq/pkg/config"
	"github.com/schematiq/schematiq/pkg/store"
)

// newServeCmd creates the serve command running the HTTP API.
func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the schematiq HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config")

	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	layoutCache, err := openServeCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer layoutCache.Close()

	diagrams, err := openServeStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer diagrams.Close(context.Background())

	srv := server.New(server.Options{
		Config: cfg,
		Logger: logger,
		Cache:  layoutCache,
		Keyer:  cache.NewScopedKeyer(cache.NewDefaultKeyer(), "schematiq:"),
		Store:  diagrams,
	})

	// Idle sessions accumulate state; sweep them in the background.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.EvictIdle()
			}
		}
	}()

	logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"cache", cfg.Cache.Backend,
		"store", cfg.Store.Backend,
	)
	return srv.ListenAndServe(ctx)
}

// openServeCache builds the cache backend named in the config.
func openServeCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
	case "none":
		return cache.NewNullCache(), nil
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

// openServeStore builds the diagram store named in the config.
func openServeStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.Backend == "mongo" {
		return store.NewMongoStore(ctx, store.MongoOptions{
			URI:        cfg.Store.URI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
		})
	}
	return store.NewMemoryStore(), nil
}
