// Command coordinator is the Robot Coordination Core's process entry
// point. It wires Config, the Coordinator, the Auth Collaborator, the
// Janitor, the UDP discovery listener, and the HTTP/WebSocket server
// together, then waits for SIGINT/SIGTERM to shut down gracefully —
// mirroring the teacher's cmd/gateway/main.go bootstrap and shutdown shape.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robot-ai-webapp/coord-core/internal/audit"
	"github.com/robot-ai-webapp/coord-core/internal/auth"
	"github.com/robot-ai-webapp/coord-core/internal/clock"
	"github.com/robot-ai-webapp/coord-core/internal/config"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
	"github.com/robot-ai-webapp/coord-core/internal/discovery"
	httptransport "github.com/robot-ai-webapp/coord-core/internal/middleware"
	"github.com/robot-ai-webapp/coord-core/internal/robotclient"
	coordhttp "github.com/robot-ai-webapp/coord-core/internal/transport/http"
	"github.com/robot-ai-webapp/coord-core/internal/transport/ws"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging.Level)
	defer logger.Sync()

	logger.Info("starting robot coordination core",
		zap.Int("port", cfg.Server.Port),
		zap.Int("discovery_port", cfg.Server.DiscoveryPort),
	)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("invalid redis url, running without the event ledger", zap.Error(err))
		} else {
			redisClient = redis.NewClient(opts)
		}
	}
	ledger := audit.New(redisClient, logger)

	httpClient := robotclient.NewWithTimeout(cfg.Timing.RobotHTTPTimeout())
	coord := coordination.NewWithTiming(clock.RealClock{}, logger, httpClient, ledger,
		cfg.Timing.LockTTL(), cfg.Timing.Staleness())

	collaborator := auth.NewJWTVerifier(cfg.Auth.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	janitor := coordination.NewJanitorWithInterval(coord, logger, cfg.Timing.JanitorInterval())
	janitor.Start(ctx)

	discoveryListener, err := discovery.Listen(cfg.Server.DiscoveryPort, coord, logger)
	if err != nil {
		logger.Fatal("failed to start discovery listener", zap.Error(err))
	}
	go discoveryListener.Run(ctx)

	relay := ws.NewRelay(collaborator, coord, logger)
	downlink := ws.NewDownlink(coord, logger)
	restServer := coordhttp.New(coord, collaborator, cfg.Auth.RobotAPIKey, logger)

	mux := restServer.Mux()
	mux.Handle("/ws/drive/manual", relay)
	mux.Handle("/ws/robot/control", downlink)

	rateLimiter := httptransport.NewRateLimiter(120, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      rateLimiter.Middleware(httptransport.LoggingMiddleware(logger)(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down gracefully...")
	cancel()
	discoveryListener.Close()

	if redisClient != nil {
		_ = redisClient.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("coordinator stopped")
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
