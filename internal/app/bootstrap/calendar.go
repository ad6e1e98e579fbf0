package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/salon-scheduler/internal/calendar"
	appconfig "github.com/wolfman30/salon-scheduler/internal/config"
	observemetrics "github.com/wolfman30/salon-scheduler/internal/observability/metrics"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// BuildCalendarGateway returns the Google Calendar gateway when credentials
// are configured. Without them, or when the client cannot be built, the
// scheduler runs against calendar.Disabled and relies on local bookings only.
func BuildCalendarGateway(ctx context.Context, cfg *appconfig.Config, loc *time.Location, logger *logging.Logger, metrics *observemetrics.SchedulerMetrics) calendar.Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	credsJSON := strings.TrimSpace(cfg.GoogleCredentialsJSON)
	credsFile := strings.TrimSpace(cfg.GoogleCredentialsFile)
	if credsJSON == "" && credsFile == "" {
		logger.Info("google calendar not configured; external conflicts disabled")
		return calendar.Disabled{}
	}

	gw, err := calendar.NewGoogleGateway(ctx, calendar.GoogleConfig{
		CalendarID:      cfg.GoogleCalendarID,
		CredentialsJSON: []byte(credsJSON),
		CredentialsFile: credsFile,
		Location:        loc,
		Timeout:         cfg.CalendarTimeout,
	}, logger.With("component", "calendar"))
	if err != nil {
		logger.Warn("google calendar unavailable; external conflicts disabled", "error", err)
		return calendar.Disabled{}
	}
	logger.Info("google calendar enabled", "calendar_id", cfg.GoogleCalendarID)
	if metrics == nil {
		return gw
	}
	return calendar.Instrument(gw, metrics)
}
