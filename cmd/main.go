package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"

	"github.com/Leganyst/appointment-availability/internal/booking"
	"github.com/Leganyst/appointment-availability/internal/cache"
	"github.com/Leganyst/appointment-availability/internal/config"
	"github.com/Leganyst/appointment-availability/internal/db"
	"github.com/Leganyst/appointment-availability/internal/httpapi"
	"github.com/Leganyst/appointment-availability/internal/logging"
	"github.com/Leganyst/appointment-availability/internal/metrics"
	"github.com/Leganyst/appointment-availability/internal/repository"
	"github.com/Leganyst/appointment-availability/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "availability",
		Short:         "Appointment availability and booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gormDB, err := db.NewGormDB(&cfg.DB)
			if err != nil {
				return fmt.Errorf("init db: %w", err)
			}
			if err := db.Migrate(gormDB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrate.done", zap.String("driver", cfg.DB.Driver))
			return nil
		},
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe() error {
	// 1. Конфиг и логгер.
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	defaultLoc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	// 2. БД.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	if cfg.App.AutoMigrate {
		if err := db.Migrate(gormDB); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	// 3. Метрики и кэши.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewBookingMetrics(reg)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			// кэш журнала необязателен, работаем без него
			logger.Warn("redis.unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}

	// 4. Репозитории и прикладной сервис.
	schedules := repository.NewGormScheduleRepository(gormDB, defaultLoc)
	roles := repository.RoleStore{Users: repository.NewGormUserRepository(gormDB)}

	bookingSvc := booking.NewService(booking.Deps{
		Schedules:     schedules,
		Appointments:  repository.NewGormAppointmentRepository(gormDB),
		Professionals: repository.NewGormProfessionalRepository(gormDB),
		Services:      repository.NewGormServiceRepository(gormDB),
		ScheduleCache: cache.NewScheduleCache(schedules, cfg.Cache.ScheduleSize, cfg.Cache.ScheduleTTL, logger, m),
		LedgerCache:   cache.NewLedgerCache(rdb, cfg.Cache.LedgerTTL, logger, m),
		Metrics:       m,
		Logger:        logger,
	})

	// 5. HTTP.
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Booking:         bookingSvc,
		Roles:           roles,
		Logger:          logger,
		DefaultLocation: defaultLoc,
		Gatherer:        reg,
		Ready:           readiness(gormDB),
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 6. gRPC.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		service.RecoveryInterceptor(logger),
		unaryLogger(logger),
	))
	service.RegisterCalendarServer(grpcServer, service.NewCalendarService(bookingSvc, roles, logger))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(service.CalendarServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
	}

	// 7. Запуск и грейсфул-шатдаун по сигналу.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http.listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc.listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		stopGRPC(shutdownCtx, grpcServer, logger)
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type grpcStopper interface {
	GracefulStop()
	Stop()
}

// stopGRPC ждёт завершения активных RPC, пока не истечёт ctx, затем рвёт соединения.
func stopGRPC(ctx context.Context, srv grpcStopper, logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("grpc.graceful_stop_timeout", zap.Error(ctx.Err()))
		srv.Stop()
		<-done
	}
}

func readiness(gormDB *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return sqlDB.PingContext(ctx)
	}
}

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			logger.Warn("grpc.request", append(fields, zap.Error(err))...)
		} else {
			logger.Info("grpc.request", fields...)
		}
		return resp, err
	}
}
