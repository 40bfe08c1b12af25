// Command exdesk runs the crypto/fiat wallet exchange desk.
// It serves the HTTP API by default or an interactive exchange terminal,
// and can be configured via a YAML configuration file or command-line arguments.
//
// Usage:
//
//	exdesk --config config.yaml
//	exdesk --listen :8080 --cryptofeed bybit --rates live
//	exdesk --terminal
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vadiminshakov/exdesk/config"
	"github.com/vadiminshakov/exdesk/internal"
)

func main() {
	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(conf)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	desk, err := internal.NewDesk(conf, logger)
	if err != nil {
		logger.Fatal("failed to create exchange desk", zap.Error(err))
	}
	defer desk.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if conf.Terminal {
		err = desk.RunTerminal(ctx)
	} else {
		err = desk.Serve(ctx)
	}
	if err != nil {
		logger.Error("exchange desk stopped", zap.Error(err))
	}
}

// newLogger builds a production logger. The terminal logs to a file so forms stay readable.
func newLogger(conf config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if conf.Terminal {
		zc.OutputPaths = []string{"exdesk.log"}
	}

	return zc.Build()
}
