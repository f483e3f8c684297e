package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/wiz-rd/Rummikub/internal/config"
	"github.com/wiz-rd/Rummikub/internal/game"
	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
	"github.com/wiz-rd/Rummikub/internal/handler"
	"github.com/wiz-rd/Rummikub/internal/health"
	"github.com/wiz-rd/Rummikub/internal/jwt"
	rummikubNats "github.com/wiz-rd/Rummikub/internal/nats"
	rummikubRedis "github.com/wiz-rd/Rummikub/internal/redis"
	"github.com/wiz-rd/Rummikub/internal/repository"
	"github.com/wiz-rd/Rummikub/internal/router"
	"github.com/wiz-rd/Rummikub/internal/snowflake"
	"github.com/wiz-rd/Rummikub/internal/task"
)

func main() {
	// 初始化日志
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 加载配置
	configPath := os.Getenv("RUMMIKUB_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		logger.Warn("Unknown log level, using info", "level", cfg.App.LogLevel)
	}

	rules, err := cfg.DefaultRules()
	if err != nil {
		logger.Error("Invalid game rules", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 游戏仓库
	var (
		store game.Store = repository.NewMemoryStore()
		db    *pgxpool.Pool
	)
	if cfg.Database.Enabled {
		db, err = connectDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := repository.NewGameRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to ensure schema", "error", err)
			os.Exit(1)
		}
		store = repo
		logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)
	} else {
		logger.Warn("Database disabled, games are kept in memory only")
	}

	// ID 生成器
	node, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		logger.Error("Invalid node id", "nodeId", cfg.App.NodeID, "error", err)
		os.Exit(1)
	}

	// 回合计时
	scheduler := task.NewScheduler(cfg.Scheduler)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	manager := game.NewGameManager(cfg.Manager)

	opts := []game.Option{
		game.WithDefaultRules(rules),
		game.WithIDGenerator(node.NextString),
		game.WithTurnTimer(scheduler, scheduler.TickInterval()),
		game.WithNotifyQueue(cfg.Game.NotifyQueue),
	}

	// 分布式锁
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = connectRedis(cfg.Redis)
		defer redisClient.Close()
		opts = append(opts, game.WithLocker(rummikubRedis.NewGameLocker(redisClient, cfg.Redis.Lock)))
		logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())
	}

	// 事件通知
	var natsClient *rummikubNats.Client
	if cfg.NATS.Enabled {
		natsClient, err = rummikubNats.NewClient(rummikubNats.ClientConfig{
			URL:           cfg.NATS.URL,
			Name:          cfg.App.Name,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
		})
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		opts = append(opts, game.WithNotifier(rummikubNats.NewEventPublisher(natsClient.Conn(), cfg.NATS.PublishRetries)))
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	engine := rummikub.NewEngine(rummikub.NewRandom(cfg.Game.Seed))
	service := game.NewGameService(engine, store, manager, opts...)

	// NATS 命令入口
	var subscriber *rummikubNats.CommandSubscriber
	if natsClient != nil {
		subscriber = rummikubNats.NewCommandSubscriber(natsClient.Conn(), handler.NewCommandHandler(service), rummikubNats.SubscriberConfig{
			WorkerCount: cfg.NATS.WorkerCount,
			BufferSize:  cfg.NATS.BufferSize,
		})
		if err := subscriber.Start(ctx); err != nil {
			logger.Error("Failed to start subscriber", "error", err)
			os.Exit(1)
		}
	}

	// HTTP 服务
	if cfg.JWT.SecretKey == "" {
		logger.Error("jwt.secret_key is required")
		os.Exit(1)
	}
	jwtService := jwt.NewService(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.AccessExpire)

	var natsConn *nats.Conn
	if natsClient != nil {
		natsConn = natsClient.Conn()
	}
	checker := health.NewChecker(natsConn, redisClient, db, scheduler, manager.Count)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router.SetupRouter(cfg.App.Mode, jwtService, handler.NewGameHandler(service), checker),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()

	logger.Info("Rummikub service started", "name", cfg.App.Name, "nodeId", cfg.App.NodeID)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if subscriber != nil {
		_ = subscriber.Stop()
	}
	scheduler.Stop()
	if err := service.Close(shutdownCtx); err != nil {
		logger.Error("Flushing game events failed", "error", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error("GameManager shutdown failed", "error", err)
	}
	cancel()

	logger.Info("Rummikub service stopped")
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
