package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/app"
	"github.com/kitbuilder587/ikar-assistant/internal/bootstrap"
	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ikar:", err)
		stop()
		os.Exit(1)
	}
}

// env - конфиг и логгер, общие для всех подкоманд
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "ikar",
		Short:         "ИКАР-Ассистент: помощник инженера техподдержки ККТ и 1С",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env необязателен
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := config.NewLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}

			e.cfg = cfg
			e.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, e)
		},
	}

	rootCmd.AddCommand(newRunCmd(e))
	rootCmd.AddCommand(newTelegramCmd(e))
	rootCmd.AddCommand(newInitCmd(e))
	rootCmd.AddCommand(newCheckCmd(e))
	rootCmd.AddCommand(newStatusCmd(e))
	rootCmd.AddCommand(newHistoryCmd(e))

	return rootCmd
}

// prepare - общая подготовка оболочек: зависимости, каталоги, хранилище, фоновый звук
func prepare(ctx context.Context, e *env) (*app.App, func(), error) {
	report := bootstrap.CheckDependencies(e.cfg, exec.LookPath)
	for _, c := range report.Checks {
		if !c.OK && !c.Required {
			e.logger.Info("optional dependency missing", zap.String("name", c.Name), zap.String("detail", c.Detail))
		}
	}
	if err := report.Err(); err != nil {
		e.logger.Error("required dependencies missing", zap.Error(err))
		return nil, nil, err
	}

	created, err := bootstrap.EnsureDirs(e.cfg.Home)
	if err != nil {
		return nil, nil, err
	}
	if len(created) > 0 {
		e.logger.Info("directories created", zap.Strings("dirs", created))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegisterer(reg)
	stopMetrics := startMetricsServer(e.cfg.Metrics.Addr, reg, e.logger)

	a, err := app.New(ctx, e.cfg, e.logger, m, app.Options{})
	if err != nil {
		stopMetrics()
		return nil, nil, err
	}

	a.StartAmbient(ctx)

	cleanup := func() {
		if err := a.Close(); err != nil {
			e.logger.Error("failed to close application", zap.Error(err))
		}
		stopMetrics()
		e.logger.Info("shutdown complete")
	}
	return a, cleanup, nil
}

func startMetricsServer(addr string, g prometheus.Gatherer, logger *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HandlerFor(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
