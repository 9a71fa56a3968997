package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sandeepkv93/todo/internal/config"
	"github.com/sandeepkv93/todo/internal/controller"
	"github.com/sandeepkv93/todo/internal/logger"
	"github.com/sandeepkv93/todo/internal/metrics"
	"github.com/sandeepkv93/todo/internal/registry"
	"github.com/sandeepkv93/todo/internal/storage"
	"github.com/sandeepkv93/todo/internal/update"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "todo failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("todo", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "todo.yaml", "path to a YAML config file")
	db := flags.String("db", "", "sqlite file path, or postgres DSN with --driver=postgres")
	driver := flags.String("driver", "", "storage driver: sqlite or postgres")
	dev := flags.Bool("dev", false, "development logging")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, *driver, *db, *dev)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync(log)

	log.Info("starting todo",
		zap.String("driver", cfg.Storage.Driver),
		zap.Duration("grace_period", cfg.Registry.GracePeriod),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := storage.Open(ctx, cfg.Storage, log)
	cancel()
	if err != nil {
		log.Error("open task store", zap.Error(err))
		return fmt.Errorf("open task store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("close task store", zap.Error(err))
		}
	}()

	reg := registry.New(store,
		registry.WithGracePeriod(cfg.Registry.GracePeriod),
		registry.WithLogger(log),
	)
	defer reg.Close()

	ctrl := controller.New(context.Background(), reg, controller.WithLogger(log))
	defer ctrl.Close()

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	program := tea.NewProgram(update.NewModel(ctrl,
		update.WithLogger(log),
		update.WithStatusTimeout(cfg.UI.StatusTimeout),
	))
	if _, err := program.Run(); err != nil {
		log.Error("terminal ui stopped", zap.Error(err))
		return err
	}
	log.Info("todo stopped", zap.String("session", ctrl.Session()))
	return nil
}

// loadConfig layers defaults, the config file, TODO_* variables and flags, in that order.
func loadConfig(path, driver, db string, dev bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg = config.FromEnv(cfg)
	if driver != "" {
		cfg.Storage.Driver = driver
	}
	if db != "" {
		if cfg.Storage.Driver == config.DriverPostgres {
			cfg.Storage.DSN = db
		} else {
			cfg.Storage.Path = db
		}
	}
	if dev {
		cfg.Logging.Development = true
	}
	return cfg, cfg.Validate()
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("metrics server listening", zap.String("addr", addr))
	return srv
}
