package service

import (
	"go.uber.org/zap"

	"remindly/config"
	"remindly/internal/mail"
	"remindly/internal/repository"
	"remindly/pkg/jwt"
	"remindly/pkg/redis"
)

// Service aggregates all services.
type Service struct {
	Auth     AuthService
	Event    EventService
	Calendar CalendarService
	Series   SeriesService
	Reminder ReminderService
	Export   ExportService
}

// NewService builds the service aggregate.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	sender mail.Sender,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Event:    NewEventService(repo, logger),
		Calendar: NewCalendarService(repo, logger),
		Series:   NewSeriesService(repo, logger),
		Reminder: NewReminderService(cfg, repo, sender, logger),
		Export:   NewExportService(repo, logger),
	}
}
