package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cobus/internal/alert"
	"github.com/MrSnakeDoc/cobus/internal/config"
	"github.com/MrSnakeDoc/cobus/internal/controller"
	"github.com/MrSnakeDoc/cobus/internal/httpserver"
	"github.com/MrSnakeDoc/cobus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cobus/internal/logger"
	"github.com/MrSnakeDoc/cobus/internal/redis"
	"github.com/MrSnakeDoc/cobus/internal/shell"
	"github.com/MrSnakeDoc/cobus/internal/store"
	"github.com/MrSnakeDoc/cobus/internal/store/firebase"
	"github.com/MrSnakeDoc/cobus/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/cobus/internal/store/redis"
	"github.com/MrSnakeDoc/cobus/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	store       store.Adapter
	ctrl        *controller.Controller
	server      *httpserver.Server
	redisClient *goredis.Client
}

// New wires the store, the alert sink and the controller described by cfg,
// then runs the controller startup policy. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return newWithLogger(ctx, cfg, logger.New(cfg.LogLevel, cfg.PrettyLog))
}

func newWithLogger(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: loggerClient}

	credential, err := cfg.Credential()
	if err != nil {
		return nil, err
	}

	if err := a.openStore(ctx, credential); err != nil {
		return nil, err
	}

	sink, err := alert.New(cfg.AlertBackend, cfg.AlertCommand, loggerClient)
	if err != nil {
		a.closeStore()
		return nil, err
	}

	a.ctrl, err = controller.New(ctx, controller.Options{
		UnitName:       cfg.UnitName,
		MaxPassengers:  cfg.MaxPassengers,
		CleanAtStartup: cfg.CleanAtStartup,
		Store:          a.store,
		Alert:          sink,
		Logger:         loggerClient,
	})
	if err != nil {
		a.closeStore()
		return nil, err
	}

	if cfg.ListenPort != "" {
		a.server = httpserver.New(cfg.ListenPort, deps.Deps{
			Logger:       loggerClient,
			StartTime:    time.Now(),
			Version:      version.Version,
			Commit:       version.Commit,
			BuildDate:    version.BuildDate,
			GoVersion:    version.GoVersion,
			TimeNow:      time.Now,
			AllowedCIDRS: cfg.AllowedCIDRS,
			TrustProxy:   cfg.TrustProxy,
			State:        a.ctrl,
			Store:        a.store,
			Registry:     a.ctrl.Registry(),
		})
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context, credential string) error {
	cfg := a.cfg
	a.logger.Info("opening remote store",
		logger.String("backend", cfg.StoreBackend),
		logger.String("unit", cfg.UnitName))

	switch cfg.StoreBackend {
	case config.BackendFirebase:
		client, err := firebase.New(firebase.Options{
			BaseURL:    cfg.RemoteBaseURL,
			Unit:       cfg.UnitName,
			Credential: credential,
			Timeout:    cfg.RemoteTimeout,
		})
		if err != nil {
			return err
		}
		a.store = client

	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       credential,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redisClient = client
		a.store = redisstore.NewStore(client, cfg.UnitName)

	case config.BackendMemory:
		a.logger.Warn("memory store selected, nothing survives this process")
		a.store = memory.New()

	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return nil
}

// Controller exposes the wired controller.
func (a *App) Controller() *controller.Controller { return a.ctrl }

// RunShell drives the controller from in until the exit option, end of
// input or SIGINT/SIGTERM. The status server, when configured, runs alongside.
func (a *App) RunShell(ctx context.Context, in io.Reader, out io.Writer) error {
	a.logger.Infof("cobus %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				errCh <- fmt.Errorf("status server error: %w", err)
				stop()
			}
		}()
	}

	shellErr := shell.New(a.ctrl, in, out, a.logger).Run(ctx)

	var serverErr error
	select {
	case serverErr = <-errCh:
	default:
	}
	return errors.Join(shellErr, serverErr, a.Close())
}

// Sync runs one sync in the given direction.
func (a *App) Sync(ctx context.Context, reverse bool) error {
	if !a.ctrl.SyncWithServer(ctx, reverse) {
		direction := "push"
		if reverse {
			direction = "pull"
		}
		return fmt.Errorf("sync %s failed, see logs", direction)
	}
	return nil
}

// Close stops the status server and releases the store connection.
func (a *App) Close() error {
	var errs []error
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
		}
	}
	a.closeStore()
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *App) closeStore() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("redis closed cleanly")
	}
	a.redisClient = nil
}
