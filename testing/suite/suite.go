package suite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/storage"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	postgresPort     = "5432/tcp"
	postgresImage    = "postgres"
	postgresTag      = "16-alpine"
	postgresUser     = "fourinarow"
	postgresPassword = "secret"
	postgresDB       = "fourinarow"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *pgxpool.Pool
	Redis   *redis.Client
}

// New - starts a Postgres container with the schema applied.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, st := newSuite(t)

	pool, resource := st.run(postgresImage, postgresTag, []string{
		"POSTGRES_USER=" + postgresUser,
		"POSTGRES_PASSWORD=" + postgresPassword,
		"POSTGRES_DB=" + postgresDB,
	})

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		postgresUser, postgresPassword, resource.GetHostPort(postgresPort), postgresDB)

	var postgres *storage.PostgresStorage
	st.retry(pool, resource, func() error {
		var err error
		postgres, err = storage.NewPostgresStorage(ctx, dsn)
		return err
	})

	if err := postgres.Migrate(ctx); err != nil {
		t.Fatalf("could not migrate database: %v", err)
	}

	t.Cleanup(postgres.Close)

	st.Storage = postgres.Pool

	return ctx, st
}

// NewRedis - starts a Redis container.
func NewRedis(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, st := newSuite(t)

	pool, resource := st.run(redisImage, redisTag, []string{})
	redisHost := resource.GetHostPort(redisPort)

	var redisClient *redis.Client
	st.retry(pool, resource, func() error {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisHost,
		})
		return redisClient.Ping(ctx).Err()
	})

	if err := redisClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	st.Redis = redisClient

	return ctx, st
}

func newSuite(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	return ctx, &Suite{
		T:      t,
		Logger: logger,
	}
}

// run - pulls an image, creates a container based on it and runs it.
func (that *Suite) run(repository, tag string, env []string) (*dockertest.Pool, *dockertest.Resource) {
	that.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		that.Fatalf("could not connect to docker: %v", err)
	}

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = maxWaitDuration

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: repository,
		Tag:        tag,
		Env:        env,
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		that.Fatalf("could not start resource: %v", err)
	}

	// never returns error
	_ = resource.Expire(expireDuration) // Tell docker to hard kill the container in 120 seconds

	that.Cleanup(func() {
		if err = pool.Purge(resource); err != nil {
			that.Logf("could not purge resource: %v", err)
		}
	})

	return pool, resource
}

func (that *Suite) retry(pool *dockertest.Pool, resource *dockertest.Resource, connect func() error) {
	that.Helper()

	if err := pool.Retry(connect); err != nil {
		that.Fatalf("could not connect to %s: %v", resource.Container.Name, err)
	}
}
