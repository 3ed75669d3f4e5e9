package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/bootstrap"
	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/console"
	"github.com/kitbuilder587/ikar-assistant/internal/telegram"
)

func newRunCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Терминальная оболочка (по умолчанию)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, e)
		},
	}
}

func runConsole(cmd *cobra.Command, e *env) error {
	ctx := cmd.Context()

	a, cleanup, err := prepare(ctx, e)
	if err != nil {
		return err
	}
	defer cleanup()

	shell := console.New(console.Deps{
		Dispatcher: a.Dispatcher,
		History:    a.Recent,
		Speaker:    a.Speaker,
		Logger:     e.logger,
		In:         cmd.InOrStdin(),
		Out:        cmd.OutOrStdout(),
	})

	e.logger.Info("console shell started")
	return shell.Run(ctx)
}

func newTelegramCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Телеграм-бот",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cfg.ValidateTelegram(); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, cleanup, err := prepare(ctx, e)
			if err != nil {
				return err
			}
			defer cleanup()

			bot, err := telegram.New(telegram.BotConfig{
				Token:             e.cfg.Telegram.Token,
				Debug:             e.cfg.Telegram.Debug,
				RequestsPerMinute: e.cfg.RateLimit.RequestsPerMinute,
				AdminChatIDs:      e.cfg.Telegram.AdminChatIDs,
			}, a.Dispatcher, a.Recent, e.logger, a.Metrics)
			if err != nil {
				return err
			}

			if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Создать рабочие каталоги",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := bootstrap.EnsureDirs(e.cfg.Home)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintf(out, "Все каталоги уже существуют в %s\n", e.cfg.Home)
				return nil
			}
			for _, d := range created {
				fmt.Fprintf(out, "+ %s\n", d)
			}
			e.logger.Info("directories created", zap.Int("count", len(created)))
			return nil
		},
	}
}

func newCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Проверить внешние зависимости",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := bootstrap.CheckDependencies(e.cfg, exec.LookPath)
			fmt.Fprint(cmd.OutOrStdout(), report.String())
			return report.Err()
		},
	}
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Состояние установки: каталоги, база, провайдеры",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := bootstrap.Status(cmd.Context(), e.cfg)
			fmt.Fprint(cmd.OutOrStdout(), report.String())
			if !report.OK() {
				return errors.New("status check found issues")
			}
			return nil
		},
	}
}

func newHistoryCmd(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Последние запросы из истории",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(e.cfg.History.Path); e.cfg.History.Backend != config.BackendPostgres && err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "История пуста.")
				return nil
			}

			repo, err := bootstrap.OpenHistory(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			if limit <= 0 {
				limit = e.cfg.History.Limit
			}
			entries, err := repo.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "История пуста.")
				return nil
			}
			for i := range entries {
				fmt.Fprintf(out, "%d. [#%d] %s\n", i+1, entries[i].ID, entries[i].Preview())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Сколько записей показать (по умолчанию HISTORY_LIMIT)")
	return cmd
}
