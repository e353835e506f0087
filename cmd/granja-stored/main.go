package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/api"
	"github.com/granjapro/granja/internal/config"
	"github.com/granjapro/granja/internal/logging"
	"github.com/granjapro/granja/internal/server"
	"github.com/granjapro/granja/internal/storage"
	"github.com/granjapro/granja/internal/vault"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("GRANJA_CONFIG"))
	if err != nil {
		return err
	}
	if cfg.Store.Backend == config.BackendRemote {
		return errors.New("the daemon serves a local store; set store.backend to json or sqlite")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log, true)
	if err != nil {
		return err
	}
	defer closeLog()
	logger = logger.Named("stored")

	store, closer, err := storage.Open(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closer.Close()

	collections, _ := store.Collections()
	logger.Info("engine started", zap.String("backend", cfg.Store.Backend), zap.Int("collections", len(collections)))

	router := server.NewRouter(store, logger.Named("tcp"))
	if cfg.Daemon.TLS {
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			return fmt.Errorf("generate TLS certificate: %w", err)
		}
		router.SetCertificate(cert)
		logger.Info("TLS enabled with a self-signed certificate")
	} else {
		logger.Warn("TLS disabled (daemon.tls=false)")
	}

	var httpSrv *http.Server
	if cfg.Daemon.HTTPPort > 0 {
		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Recovery(), requestLogger(logger.Named("http")))
		h := &api.Handler{Store: store}
		h.Register(r.Group("/api"))

		httpSrv = &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Daemon.HTTPPort),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("browse API listening", zap.String("addr", httpSrv.Addr))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		if httpSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}
		_ = router.Stop()
	}()

	logger.Info("store listening", zap.Int("port", cfg.Daemon.Port))
	if err := router.Listen(strconv.Itoa(cfg.Daemon.Port)); err != nil {
		return fmt.Errorf("TCP server failed: %w", err)
	}
	logger.Info("stopped")
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
