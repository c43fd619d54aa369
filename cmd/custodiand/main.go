package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"custodian/config"
	"custodian/core/events"
	coretypes "custodian/core/types"
	"custodian/ledger"
	"custodian/native/common"
	"custodian/observability/logging"
	"custodian/observability/otel"
	"custodian/rpc"
	"custodian/storage"
)

// logEmitter forwards custody events to the structured logger.
type logEmitter struct {
	log *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	args := []any{"type", evt.EventType()}
	if carrier, ok := evt.(interface{ Event() *coretypes.Event }); ok {
		if inner := carrier.Event(); inner != nil {
			for key, value := range inner.Attributes {
				args = append(args, key, value)
			}
		}
	}
	l.log.Info("custody event", args...)
}

func main() {
	configPath := flag.String("config", "config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	log := logging.Setup("custodiand", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: "custodiand",
			Environment: cfg.Environment,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    cfg.OTLPInsecure,
		})
		if err != nil {
			log.Error("init telemetry", "err", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn("telemetry shutdown", "err", err)
			}
		}()
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		log.Error("open database", "err", err, "dir", cfg.DataDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", "err", err)
		}
	}()

	svc := ledger.NewService(ledger.NewLedger(db))
	svc.SetEmitter(logEmitter{log: log})
	svc.SetPauses(common.NewPauseSet(cfg.PausedModules...))

	authToken := os.Getenv(cfg.RPCAuthTokenEnv)
	if authToken == "" {
		log.Warn("RPC auth token not set, mutating methods disabled", "env", cfg.RPCAuthTokenEnv)
	}

	server := rpc.NewServer(svc, authToken, log)
	server.SetMaxRequestBytes(cfg.MaxRequestBodyBytes)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.RPCAddress,
			time.Duration(cfg.ReadTimeoutSecs)*time.Second,
			time.Duration(cfg.WriteTimeoutSecs)*time.Second)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("rpc server", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("rpc shutdown", "err", err)
		}
	}
}
