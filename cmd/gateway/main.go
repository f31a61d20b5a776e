// Package main Users Gateway
//
// REST API in front of the users gRPC service.
//
//	@title			Users Gateway API
//	@version		1.0
//	@description	REST gateway in front of the users gRPC service
//
//	@contact.name	API Support
//	@contact.email	support@example.com
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8443
//	@BasePath	/
//	@schemes	https http
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "user-service/docs/swagger"
	"user-service/internal/gateway/clients"
	"user-service/internal/gateway/handlers"
	"user-service/pkg/config"
	"user-service/pkg/logger"
	"user-service/pkg/middleware"
	pkgtls "user-service/pkg/tls"
)

func main() {
	cfg := config.LoadForService("GATEWAY")

	log := logger.New("gateway", cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("gateway stopped", zap.Error(err))
	}
	log.Info("gateway stopped")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting gateway service")

	grpcClients, err := clients.NewClients(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create gRPC clients: %w", err)
	}
	defer grpcClients.Close()
	log.Info("users gRPC client ready", zap.String("addr", cfg.UsersGRPCAddr))

	server, err := newServer(cfg, newRouter(log, grpcClients))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if server.TLSConfig != nil {
			log.Info("HTTPS server listening", zap.String("addr", server.Addr))
			err = server.ListenAndServeTLS("", "")
		} else {
			log.Info("HTTP server listening", zap.String("addr", server.Addr))
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRouter(log *logger.Logger, grpcClients *clients.Clients) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	middleware.Default(router, log, "/health")

	handlers.NewHandler(grpcClients.Users).RegisterRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
	})

	return router
}

func newServer(cfg *config.Config, router http.Handler) (*http.Server, error) {
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	if cfg.TLSEnabled {
		tlsConfig, err := pkgtls.ServerConfig(pkgtls.Files{
			CertFile: cfg.TLSCertFile,
			KeyFile:  cfg.TLSKeyFile,
		}, false)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS config: %w", err)
		}
		server.Addr = ":" + cfg.HTTPSPort
		server.TLSConfig = tlsConfig
	}

	return server, nil
}
