package root

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flatmate/household-engine/api"
	"github.com/flatmate/household-engine/config"
	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/household/store"
	"github.com/flatmate/household-engine/lock"
	"github.com/flatmate/household-engine/logging"
	"github.com/flatmate/household-engine/metrics"
	"github.com/flatmate/household-engine/store/sqldb"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		addr      string
		driver    string
		dsn       string
		redisAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the household API server",
		Long: `Run the household API server.

Configuration is read from --config, then environment variables, then the
flags below. On SIGINT/SIGTERM the server stops accepting connections and
waits for active requests up to server.shutdown_timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if f.Changed("db-driver") {
				cfg.Database.Driver = driver
			}
			if f.Changed("db-dsn") {
				cfg.Database.DSN = dsn
			}
			if f.Changed("redis-addr") {
				cfg.Redis.Addr = redisAddr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080")
	cmd.Flags().StringVar(&driver, "db-driver", "", "sqlite3, postgres or memory")
	cmd.Flags().StringVar(&dsn, "db-dsn", "", `database DSN; ":memory:" for in-memory SQLite`)
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for cross-process locks")
	return cmd
}

// serve runs the server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "household-engine")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	st, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	codec, err := cfg.ScheduleCodec()
	if err != nil {
		return err
	}
	billingCodec, err := cfg.BillingCodec()
	if err != nil {
		return err
	}

	var (
		collector metrics.Collector
		gatherer  prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
		gatherer = reg
	}

	handler := api.NewHandler(st, api.Options{
		Codec:         codec,
		InitialPeriod: household.PeriodID(cfg.Schedule.InitialPeriod),
		BillingCodec:  billingCodec,
		Locker:        locker,
		Metrics:       collector,
		Logger:        logger,
	})
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.Named("http"),
		Gatherer:       gatherer,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("db_driver", cfg.Database.Driver),
			zap.Bool("redis_locks", cfg.Redis.Addr != ""),
			zap.String("initial_period", string(handler.Calendar.Extender.Rotation.InitialPeriod)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStore opens the configured backend.
func openStore(cfg config.DatabaseConfig) (household.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverSQLite:
		s, err := sqldb.Open(sqldb.SQLite, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		db, err := sql.Open(string(sqldb.Postgres), cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		s, err := sqldb.New(db, sqldb.Postgres)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// newLocker returns a Redis locker when redis.addr is set, an in-process
// one otherwise.
func newLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lock.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		return lock.NewLocal(cfg.Lock.Wait), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	locker := lock.NewRedis(client, lock.RedisOptions{
		TTL:  cfg.Lock.TTL,
		Wait: cfg.Lock.Wait,
	}, logger.Named("lock"))
	return locker, func() { client.Close() }, nil
}
