package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/salon-scheduler/internal/config"
	"github.com/wolfman30/salon-scheduler/internal/notify"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// BuildEmailSender selects the email provider named by EMAIL_PROVIDER. "auto"
// prefers SendGrid, then SES, then the logging stub. It also returns the
// provider name that was chosen.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, string, error) {
	if logger == nil {
		logger = logging.Default()
	}
	sendgrid := func() notify.EmailSender {
		s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if s == nil {
			return nil
		}
		return s
	}
	ses := func() notify.EmailSender {
		if awsCfg == nil || strings.TrimSpace(cfg.SESFromEmail) == "" {
			return nil
		}
		s := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail:        cfg.SESFromEmail,
			FromName:         cfg.SendGridFromName,
			ConfigurationSet: cfg.SESConfigurationSet,
		}, logger)
		if s == nil {
			return nil
		}
		return s
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		if s := sendgrid(); s != nil {
			return s, "sendgrid", nil
		}
		return nil, "", fmt.Errorf("bootstrap: EMAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY")
	case "ses":
		if s := ses(); s != nil {
			return s, "ses", nil
		}
		return nil, "", fmt.Errorf("bootstrap: EMAIL_PROVIDER=ses requires SES_FROM_EMAIL and AWS config")
	case "stub":
		return notify.NewStubEmailSender(logger), "stub", nil
	case "auto", "":
		if s := sendgrid(); s != nil {
			return s, "sendgrid", nil
		}
		if s := ses(); s != nil {
			return s, "ses", nil
		}
		return notify.NewStubEmailSender(logger), "stub", nil
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}
