package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/salon-scheduler/internal/config"
	"github.com/wolfman30/salon-scheduler/internal/events"
	"github.com/wolfman30/salon-scheduler/internal/notify"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// BuildEventSinks assembles the booking event sinks that are configured. A
// sink that cannot be reached at startup is skipped with a warning. The
// returned cleanup closes broker connections.
func BuildEventSinks(cfg *appconfig.Config, awsCfg *aws.Config, email notify.EmailSender, logger *logging.Logger) ([]events.Sink, func()) {
	if logger == nil {
		logger = logging.Default()
	}
	var (
		sinks    []events.Sink
		closers  []func() error
		queueURL = strings.TrimSpace(cfg.BookingEventsQueueURL)
	)

	if queueURL != "" {
		if awsCfg == nil {
			logger.Warn("booking events queue configured without AWS config; sqs sink disabled")
		} else {
			sinks = append(sinks, events.NewSQSSink(sqs.NewFromConfig(*awsCfg), queueURL))
			logger.Info("sqs booking event sink enabled", "queue_url", queueURL)
		}
	}

	if amqpURL := strings.TrimSpace(cfg.AMQPURL); amqpURL != "" {
		sink, err := events.DialAMQPSink(amqpURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("amqp booking event sink disabled", "error", err)
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
			logger.Info("amqp booking event sink enabled", "exchange", cfg.AMQPExchange)
		}
	}

	if recipients := splitRecipients(cfg.SalonNotifyEmail); len(recipients) > 0 && email != nil {
		sinks = append(sinks, notify.NewBookingEmailSink(email, cfg.SalonName, recipients, logger))
		logger.Info("booking email notifications enabled", "recipients", len(recipients))
	}

	cleanup := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Warn("failed to close event sink", "error", err)
			}
		}
	}
	return sinks, cleanup
}

func splitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
