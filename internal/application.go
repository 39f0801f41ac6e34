package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/fourinarow-backend/internal/config"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/metrics"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/memory"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/storage"
	"github.com/rocketscienceinc/fourinarow-backend/internal/service"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport/redis"
	"github.com/rocketscienceinc/fourinarow-backend/internal/usecase"
	"github.com/rocketscienceinc/fourinarow-backend/transport/rest"
	"github.com/rocketscienceinc/fourinarow-backend/transport/websocket"
)

type publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	// persistence is optional, the game runs without it.
	var (
		playerRepo repository.PlayerRepository
		resultRepo repository.ResultRepository
	)

	if conf.Postgres.DSN != "" {
		postgresStorage, err := storage.NewPostgresStorage(ctx, conf.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("could not connect to postgres storage: %w", err)
		}
		defer postgresStorage.Close()

		if err = postgresStorage.Migrate(ctx); err != nil {
			return fmt.Errorf("could not migrate postgres storage: %w", err)
		}

		playerRepo = repository.NewPlayerRepository(postgresStorage.Pool)
		resultRepo = repository.NewResultRepository(postgresStorage.Pool)
	} else {
		log.Warn("postgres dsn is empty, results will not be persisted")
	}

	var events publisher

	if redisAddr := conf.Redis.GetRedisAddr(); redisAddr != "" {
		redisStorage, err := storage.NewRedisStorage(ctx, redisAddr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		events = redis.NewPublisher(redisStorage.Connection, conf.Redis.Stream)
	} else {
		log.Warn("redis host is empty, analytics events will not be published")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gameMetrics := metrics.New(registry)

	clk := clock.New()

	gameRepo := repository.NewGameRepository(memory.NewStore[*entity.Match](), memory.NewStore[string]())
	queue := usecase.NewQueue(clk, conf.Match.QueueTimeout, memory.NewStore[*entity.WaitingEntry]())
	resultService := service.NewResultService(logger, gameMetrics, resultRepo, playerRepo, events)

	gameManager := usecase.NewGameManager(logger, clk, gameMetrics,
		usecase.Timeouts{
			Reconnect: conf.Match.ReconnectTimeout,
			BotThink:  conf.Match.BotThinkDelay,
			Sink:      conf.Match.SinkTimeout,
		},
		gameRepo,
		queue,
		memory.NewStore[*entity.Disconnection](),
		service.NewBotService(),
		resultService,
	)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, rest.NewHealth(gameManager), rest.NewStats(logger, playerRepo, resultRepo), registry)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
