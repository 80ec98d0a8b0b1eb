package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stream-trivia-service/internal/app"
	"stream-trivia-service/internal/config"
	"stream-trivia-service/internal/infra/chesscom"
	"stream-trivia-service/internal/infra/memory"
	pgstore "stream-trivia-service/internal/infra/postgres"
	redisinfra "stream-trivia-service/internal/infra/redis"
	"stream-trivia-service/internal/round"
	transport "stream-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	client := chesscom.NewClient(cfg.Provider.BaseURL, config.TTLDuration(cfg.Provider.Timeout, 10*time.Second))

	cacheTTL := config.TTLDuration(cfg.Round.CacheTTL, 10*time.Minute)
	var provider app.StatsProvider
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		provider = redisinfra.NewProfileCache(redisClient, client, config.TTLDuration(cfg.Redis.TTL, cacheTTL))
	} else {
		provider = memory.NewProfileCache(client, cacheTTL)
	}

	var archive app.RoundArchive
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		archive = pgstore.NewRoundStore(pool)
	}

	service := app.NewGameService(provider, archive, roundConfig(cfg), roundSize(cfg))
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func roundConfig(cfg config.Config) round.Config {
	rc := round.DefaultConfig()
	rc.Countdown = config.Seconds(cfg.Round.CountdownSeconds, rc.Countdown)
	rc.Preview = config.Seconds(cfg.Round.PreviewSeconds, rc.Preview)
	rc.Open = config.Seconds(cfg.Round.OpenSeconds, rc.Open)
	rc.Reveal = config.Seconds(cfg.Round.RevealSeconds, rc.Reveal)
	if cfg.Round.BaseMaxPoints > 0 {
		rc.BaseMaxPoints = cfg.Round.BaseMaxPoints
	}
	if cfg.Round.PointsIncrement > 0 {
		rc.PointsIncrement = cfg.Round.PointsIncrement
	}
	if cfg.Round.MinPoints > 0 {
		rc.MinPoints = cfg.Round.MinPoints
	}
	if cfg.Round.StreakBonus > 0 {
		rc.StreakBonus = cfg.Round.StreakBonus
	}
	return rc
}

func roundSize(cfg config.Config) int {
	if cfg.Round.Size > 0 {
		return cfg.Round.Size
	}
	return 15
}
