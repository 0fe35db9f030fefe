package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const statusUpdateInterval = time.Minute

// StartStatusScheduler runs the date-driven tournament status transitions
// on a fixed interval. The returned scheduler should be shut down on exit.
func StartStatusScheduler(tournamentService *TournamentService, logger *slog.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(statusUpdateInterval),
		gocron.NewTask(func() {
			if err := tournamentService.AdvanceStatusesByDates(context.Background()); err != nil {
				logger.Error("tournament status update failed", slog.Any("error", err))
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register status update job: %w", err)
	}

	scheduler.Start()
	logger.Info("tournament status scheduler started", slog.Duration("interval", statusUpdateInterval))
	return scheduler, nil
}
