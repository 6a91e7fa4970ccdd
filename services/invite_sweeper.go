package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
	"github.com/go-co-op/gocron/v2"
)

const inviteSweepInterval = time.Minute

// InviteSweeper раз в минуту помечает протухшие pending-приглашения.
type InviteSweeper struct {
	invites   repositories.InviteRepository
	logger    *slog.Logger
	scheduler gocron.Scheduler
}

func NewInviteSweeper(invites repositories.InviteRepository, logger *slog.Logger) *InviteSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &InviteSweeper{invites: invites, logger: logger}
}

func (s *InviteSweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(inviteSweepInterval),
		gocron.NewTask(s.sweep),
	)
	if err != nil {
		return err
	}
	s.scheduler = sched
	sched.Start()
	s.logger.Info("invite sweeper started", slog.Duration("interval", inviteSweepInterval))
	return nil
}

func (s *InviteSweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

func (s *InviteSweeper) sweep() {
	cutoff := time.Now().Add(-models.InviteTTL)
	expired, err := s.invites.ExpireOlderThan(context.Background(), cutoff)
	if err != nil {
		s.logger.Error("failed to expire game invites", slog.Any("error", err))
		return
	}
	if expired > 0 {
		s.logger.Info("expired stale game invites", slog.Int64("count", expired))
	}
}
