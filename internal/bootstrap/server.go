package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-hrms/internal/audit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// StartHTTPServer runs the gin router until SIGINT/SIGTERM and then shuts
// down gracefully.
func StartHTTPServer(
	router *gin.Engine,
	cfg ServerConfig,
	recorder audit.Recorder,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	serve(router, cfg, recorder, quit)
}

func serve(router http.Handler, cfg ServerConfig, recorder audit.Recorder, quit <-chan os.Signal) {
	log := zap.L().Named("bootstrap.server")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	recorder.Record(context.Background(), audit.Entry{
		Action:     audit.ActionServerShutdown,
		TargetType: audit.TargetServer,
		Details:    map[string]any{"signal": sig.String()},
	})

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	} else {
		log.Info("Server exited gracefully")
	}
}
