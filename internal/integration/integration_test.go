package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"stream-trivia-service/internal/domain"
	"stream-trivia-service/internal/infra/memory"
	pgstore "stream-trivia-service/internal/infra/postgres"
	pgmigrations "stream-trivia-service/internal/infra/postgres/migrations"
	infraredis "stream-trivia-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestRoundArchiveAndProfileCacheEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewRoundStore(pool)
	finishedAt := time.Now().UTC().Truncate(time.Second)
	result := domain.RoundResult{
		Channel:   "main",
		Username:  "hikaru",
		Questions: 15,
		Standings: []domain.ScoreEntry{
			{Participant: "alice", Score: 700, Streak: 2},
			{Participant: "bob", Score: 0, Streak: 0},
		},
		FinishedAt: finishedAt,
	}
	if err := store.SaveRound(ctx, result); err != nil {
		t.Fatalf("save round: %v", err)
	}

	var raw []byte
	var username string
	err = pool.QueryRow(ctx,
		`SELECT username, standings FROM rounds WHERE channel=$1`, "main").Scan(&username, &raw)
	if err != nil {
		t.Fatalf("query round: %v", err)
	}
	if username != "hikaru" {
		t.Fatalf("username = %q, want hikaru", username)
	}
	var standings []domain.ScoreEntry
	if err := json.Unmarshal(raw, &standings); err != nil {
		t.Fatalf("unmarshal standings: %v", err)
	}
	if len(standings) != 2 || standings[0].Participant != "alice" || standings[0].Score != 700 {
		t.Fatalf("unexpected standings: %+v", standings)
	}

	// Profile cache against real redis: one upstream fetch, then cache hits.
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	loader := &countingLoader{loader: memory.NewStaticProfileLoader(
		map[string]domain.Profile{"hikaru": {Username: "hikaru", DisplayName: "Hikaru", IsStreamer: true}},
		map[string]domain.StatRecord{},
	)}
	cache := infraredis.NewProfileCache(redisClient, loader, 5*time.Minute)

	if _, _, err := cache.FetchProfile(ctx, "hikaru"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, _, err := cache.FetchProfile(ctx, "hikaru"); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", loader.calls)
	}
}

type countingLoader struct {
	loader *memory.StaticProfileLoader
	calls  int
}

func (l *countingLoader) FetchProfile(ctx context.Context, username string) (domain.Profile, domain.StatRecord, error) {
	l.calls++
	return l.loader.FetchProfile(ctx, username)
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
