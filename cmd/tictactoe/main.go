package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-tree/internal/adapters"
	"github.com/jaminalder/tictactoe-tree/internal/app"
	"github.com/jaminalder/tictactoe-tree/internal/bootstrap"
	"github.com/jaminalder/tictactoe-tree/internal/repository"
	"github.com/jaminalder/tictactoe-tree/internal/tree"
	"github.com/jaminalder/tictactoe-tree/internal/web"
)

type closer interface {
	Close(ctx context.Context) error
}

func main() {
	cfgPath := flag.String("config", ".env", "path to the config file")
	flag.Parse()

	cfg, err := bootstrap.Setup(*cfgPath)
	if err != nil {
		NewLogger(false).Fatalw("failed to setup configuration", "error", err)
	}
	logger := NewLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closers := initStore(ctx, logger, cfg)
	defer func() {
		for _, c := range closers {
			if err := c.Close(context.Background()); err != nil {
				logger.Warnw("close failed", "error", err)
			}
		}
	}()

	logger.Info("building game tree")
	start := time.Now()
	root := tree.New()
	logger.Infow("game tree ready", "positions", root.Size(), "duration", time.Since(start))

	svc := app.NewService(root, logger, store)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           web.NewServer(svc, logger, time.Duration(cfg.HeartbeatSeconds)*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("shutdown failed", "error", err)
		}
	}()

	logger.Infof("server is running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorw("server failed", "error", err)
		os.Exit(1)
	}
}

func NewLogger(debug bool) *zap.SugaredLogger {
	build := zap.NewProduction
	if debug {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

// initStore picks the result stores from the config. Mongo, when set, is
// the primary store; Redis mirrors the tally; memory is the fallback.
func initStore(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (repository.Store, []closer) {
	var stores []repository.Store
	var closers []closer

	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("failed to initialize mongodb", "error", err)
		}
		stores = append(stores, repository.NewMongoStore(mongoAdapter.Database, log))
		closers = append(closers, mongoAdapter)
	}
	if cfg.RedisUrl != "" {
		redisAdapter := adapters.NewAdapterRedis(cfg, log)
		if err := redisAdapter.Init(ctx); err != nil {
			log.Fatalw("failed to initialize redis", "error", err)
		}
		stores = append(stores, repository.NewRedisStore(redisAdapter.GetClient(), log, int64(cfg.HistoryLimit)))
		closers = append(closers, redisAdapter)
	}
	if len(stores) == 0 {
		log.Info("no database configured, keeping results in memory")
		return repository.NewMemoryStore(cfg.HistoryLimit), nil
	}
	return repository.NewTee(stores[0], stores[1:]...), closers
}
