package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"study-planner/internal/api"
	"study-planner/internal/bot"
	"study-planner/internal/config"
	"study-planner/internal/generator"
	"study-planner/internal/logging"
	"study-planner/internal/metrics"
	"study-planner/internal/repository"
	"study-planner/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = 24 * time.Hour
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the agenda scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return serve(cmd.Context(), cfg, logging.Setup(cfg.Environment))
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	m := metrics.New()
	gen, err := generator.NewOpenAI(generator.Options{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Retries: cfg.GenerateRetries,
	}, logger)
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}

	plans := service.NewPlanService(repository.NewPlanRepository(db), gen, m, logger)
	reminders := service.NewReminderService(plans)

	scheduler := service.NewSchedulerService(time.Local, time.Minute, logger)
	if _, err := scheduler.ScheduleInterval(purgeInterval, "purge", func(ctx context.Context) error {
		_, err := plans.Purge(ctx, time.Now(), cfg.PlanRetention)
		return err
	}); err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}

	errCh := make(chan error, 2)
	var agendaID cron.EntryID

	if cfg.TelegramToken != "" {
		subscribers := repository.NewSubscriberRepository(db)
		telegramBot, err := bot.New(cfg.TelegramToken, subscribers, plans, reminders, m, cfg.GenerateTimeout, logger)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		agendaID, err = scheduler.ScheduleDaily(cfg.ReminderTime, "agenda", telegramBot.SendDailyAgenda)
		if err != nil {
			return fmt.Errorf("schedule agenda: %w", err)
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	} else {
		logger.Info().Msg("TELEGRAM_TOKEN is empty, bot disabled")
	}

	scheduler.Start()
	defer scheduler.Stop()
	if agendaID != 0 {
		logger.Info().Time("next_agenda", scheduler.Next(agendaID)).Msg("agenda scheduled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(plans, logger, cfg.GenerateTimeout).Routes(m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
