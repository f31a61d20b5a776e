// Package main runs the users service: REST and gRPC over a Postgres store,
// with user events published to RabbitMQ.
//
//	@title			Users Service API
//	@version		1.0
//	@description	CRUD over users with unique emails
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	usersv1 "user-service/api/users/v1"
	swaggerdocs "user-service/docs/swagger"
	"user-service/internal/users/adapters"
	"user-service/internal/users/application"
	"user-service/internal/users/infrastructure"
	"user-service/internal/users/ports"
	"user-service/pkg/config"
	"user-service/pkg/db"
	grpcpkg "user-service/pkg/grpc"
	"user-service/pkg/logger"
	"user-service/pkg/middleware"
	"user-service/pkg/rabbitmq"
	"user-service/pkg/tls"
)

func main() {
	cfg := config.LoadForService("USERS")

	log := logger.New("users-service", cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("users service stopped", zap.Error(err))
	}
	log.Info("users service stopped")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting users service")

	dbConn, err := db.NewConnection(db.Config{
		DSN:           cfg.DSN(),
		Timeout:       cfg.DBTimeout,
		SlowThreshold: 200 * time.Millisecond,
		Debug:         cfg.LogLevel == "debug",
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(dbConn); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()
	log.Info("connected to database")

	repo := adapters.NewPostgresUserRepository(dbConn)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Events are best effort: without a broker the service runs with them disabled
	var (
		notifier      ports.EventNotifier
		asyncNotifier *adapters.AsyncNotifier
	)
	rabbitConn, err := rabbitmq.NewConnection(cfg.RabbitMQURL, log)
	if err != nil {
		log.Warn("failed to connect to RabbitMQ, user events disabled", zap.Error(err))
	} else {
		defer rabbitConn.Close()
		pub, err := rabbitmq.NewPublisher(rabbitConn, cfg.UsersExchange, log)
		if err != nil {
			log.Warn("failed to create publisher, user events disabled", zap.Error(err))
		} else {
			asyncNotifier = adapters.NewAsyncNotifier(pub, log)
			notifier = asyncNotifier
		}
	}

	var service ports.UserService = application.NewUserUseCase(repo, notifier, log)
	var cb *application.CircuitBreakerService
	if cfg.BreakerEnabled {
		cb = application.NewCircuitBreakerService(service, application.BreakerSettings{
			FailureThreshold: cfg.BreakerFailureThreshold,
			OpenTimeout:      cfg.BreakerOpenTimeout,
		}, log)
		service = cb
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      newRouter(cfg, log, service, cb),
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	grpcServer, healthServer, err := newGRPCServer(cfg, log, service)
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	// The notifier outlives the servers so it can drain what they queued
	notifierCtx, cancelNotifier := context.WithCancel(context.Background())
	defer cancelNotifier()

	g, gctx := errgroup.WithContext(ctx)

	if asyncNotifier != nil {
		g.Go(func() error {
			return asyncNotifier.Run(notifierCtx)
		})
	}

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		healthServer.Shutdown()
		grpcServer.GracefulStop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP shutdown error", zap.Error(err))
		}

		if asyncNotifier != nil {
			drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.NotifierDrainTimeout)
			defer cancelDrain()
			if err := asyncNotifier.Close(drainCtx); err != nil {
				log.Warn("notifier did not drain in time", zap.Int("pending", asyncNotifier.Pending()))
			}
		}
		cancelNotifier()
		return nil
	})

	return g.Wait()
}

func newRouter(cfg *config.Config, log *logger.Logger, service ports.UserService, cb *application.CircuitBreakerService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	middleware.Default(router, log, "/health")

	infrastructure.NewHTTPHandler(service, cfg.HATEOASEnabled).RegisterRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(swaggerdocs.SwaggerInfoUsers.InstanceName())))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if cb != nil {
			body["breaker"] = cb.State().String()
		}
		c.JSON(http.StatusOK, body)
	})

	return router
}

func newGRPCServer(cfg *config.Config, log *logger.Logger, service ports.UserService) (*grpc.Server, *health.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(grpcpkg.UnaryServerInterceptor(log, cfg.GRPCTimeout)),
	}

	if cfg.GRPCMTLSEnabled {
		creds, err := tls.GRPCServerCredentials(tls.Files{
			CertFile: cfg.GRPCServerCert,
			KeyFile:  cfg.GRPCServerKey,
			CAFile:   cfg.TLSCAFile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load gRPC TLS config: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
		log.Info("gRPC mTLS enabled")
	}

	server := grpc.NewServer(opts...)
	usersv1.RegisterUserServiceServer(server, infrastructure.NewGRPCServer(service))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(usersv1.UserService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer, nil
}
