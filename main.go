package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	clts "txlive/clients"
	"txlive/config"
	"txlive/internal/app"
	"txlive/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// Load config from environment variables (and .env when present)
	cfg := config.Load()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	for _, missing := range config.CheckEnvironment() {
		logger.Warn("environment check", zap.String("field", missing.Field), zap.String("message", missing.Message))
	}
	for _, replaced := range cfg.ApplyDefaults() {
		logger.Warn("invalid config, using default", zap.String("field", replaced.Field), zap.String("message", replaced.Message))
	}
	if cfg.Log.DebugConfig {
		if b, err := cfg.ToJSON(); err == nil {
			logger.Info("effective config", zap.ByteString("config", b))
		}
	}

	logger.Info("starting service", zap.Bool("isProd", cfg.IsProd), zap.Bool("demoMode", cfg.DemoMode))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg, metrics)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(clients, cfg, registry, metrics)
	if err := runner.Run(ctx); err != nil {
		logger.Fatal("runner failed", zap.Error(err))
	}
}

// newLogger builds the production logger at the configured level. When a log
// file is set, output is also written there with rotation.
func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	if lc.File == "" {
		return logger, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    25, // megabytes
		MaxBackups: 10,
		MaxAge:     14, // days
		Compress:   true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zcfg.EncoderConfig),
		zapcore.AddSync(rotator),
		zcfg.Level,
	)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
