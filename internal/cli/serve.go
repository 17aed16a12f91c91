package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/realtime/local"
	"github.com/AlessandroGasperini/pinky/internal/server"
	"github.com/AlessandroGasperini/pinky/internal/store"
	"github.com/AlessandroGasperini/pinky/internal/store/memory"
	redisstore "github.com/AlessandroGasperini/pinky/internal/store/redis"
)

func newServeCmd() *cobra.Command {
	var (
		host      string
		port      int
		storeType string
		redisURL  string
		seed      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the row-store API server",
		Long: `Run the HTTP server that game clients talk to: plain row CRUD over
JSON plus a per-room SSE change feed. Backed by an in-memory store by
default, or Redis with --store redis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)

			var st store.Store
			switch storeType {
			case "memory":
				st = memory.New()
			case "redis":
				redisCfg := redisstore.DefaultConfig()
				if redisURL != "" {
					redisCfg.URL = redisURL
				}
				redisStore, err := redisstore.New(redisCfg)
				if err != nil {
					return fmt.Errorf("failed to connect to redis: %w", err)
				}
				defer redisStore.Close()
				st = redisStore
			default:
				return fmt.Errorf("invalid store type %q: must be 'memory' or 'redis'", storeType)
			}

			if seed {
				if err := server.Seed(cmd.Context(), st); err != nil {
					return fmt.Errorf("failed to seed content: %w", err)
				}
				logger.Info("seeded starter content")
			}

			hub := local.NewHub(logger)
			handler := server.NewHandler(st, hub, clock.New(), logger)
			router := server.NewRouter(handler, logger)

			serverCfg := server.DefaultConfig()
			serverCfg.Host = host
			serverCfg.Port = port
			srv := server.New(serverCfg, router, logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("received signal", slog.String("signal", sig.String()))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	cmd.Flags().StringVar(&storeType, "store", getEnvOrDefault("PINKY_STORE", "memory"), "Store backend: memory, redis (env: PINKY_STORE)")
	cmd.Flags().StringVar(&redisURL, "redis-url", os.Getenv("PINKY_REDIS_URL"), "Redis URL (env: PINKY_REDIS_URL)")
	cmd.Flags().BoolVar(&seed, "seed", true, "Seed starter categories, words and questions")

	return cmd
}
