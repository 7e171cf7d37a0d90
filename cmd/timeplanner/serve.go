package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"time-planner/internal/api"
	"time-planner/internal/bot"
	"time-planner/internal/logging"
	"time-planner/internal/service"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when a token is configured, the Telegram bot",
		Long: `Run the planner.

Examples:
  timeplanner serve
  timeplanner serve --addr :9090 --config planner.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http_addr)")

	return cmd
}

func runServe(configPath, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := api.NewServer(api.Services{
		Accounts:   a.accounts,
		Categories: a.categories,
		Templates:  a.templates,
		Tasks:      a.tasks,
		Agenda:     a.agenda,
		Stats:      a.stats,
	}, a.cfg.Location, logging.Component(a.log, "http"))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("addr", addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if a.cfg.TelegramToken != "" {
		if err := startBot(gctx, g, a); err != nil {
			stop()
			_ = g.Wait()
			return err
		}
	} else {
		a.log.Info().Msg("telegram token not set, bot disabled")
	}

	err = g.Wait()
	a.log.Info().Msg("shutdown complete")
	return err
}

func startBot(ctx context.Context, g *errgroup.Group, a *app) error {
	botLog := logging.Component(a.log, "bot")
	telegramBot, err := bot.New(a.cfg.TelegramToken, bot.Services{
		Accounts:   a.accounts,
		Categories: a.categories,
		Templates:  a.templates,
		Tasks:      a.tasks,
		Agenda:     a.agenda,
	}, a.cfg.Location, a.cfg.TelegramRate, botLog)
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	if a.cfg.ReportTime != "" {
		scheduler := service.NewSchedulerService(a.cfg.Location, logging.Component(a.log, "scheduler"))
		if _, err := scheduler.ScheduleDaily(a.cfg.ReportTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			if err := telegramBot.SendDailyAgendas(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				botLog.Error().Err(err).Msg("daily agendas")
			}
		}); err != nil {
			return fmt.Errorf("schedule daily agendas: %w", err)
		}
		scheduler.Start()
		g.Go(func() error {
			<-ctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	g.Go(func() error {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped: %w", err)
		}
		return nil
	})
	return nil
}
