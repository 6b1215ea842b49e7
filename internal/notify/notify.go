// Package notify delivers escalation messages over external channels.
package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/errors"
	"github.com/guardiavista/guardia-go/internal/logging"
)

// Notifier sends one escalation message to the configured channels.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Send(title, message string) error
}

// Noop discards messages. Used when notifications are disabled.
type Noop struct{}

func (Noop) Send(title, message string) error { return nil }

// ShoutrrrNotifier sends messages through shoutrrr service URLs
// (telegram, discord, smtp, gotify and the rest of its catalog).
type ShoutrrrNotifier struct {
	sender *router.ServiceRouter
	log    *slog.Logger
}

// New builds a notifier from the escalation settings. Returns a Noop
// notifier when notifications are disabled or no URLs are configured.
func New(settings conf.EscalationSettings) (Notifier, error) {
	if !settings.Notification.Enabled || len(settings.Notification.URLs) == 0 {
		return Noop{}, nil
	}

	sender, err := shoutrrr.CreateSender(settings.Notification.URLs...)
	if err != nil {
		return nil, errors.New(fmt.Errorf("creating notification sender: %w", err)).
			Component("notify").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return &ShoutrrrNotifier{
		sender: sender,
		log:    logging.ForService("notify"),
	}, nil
}

// Send delivers the message to every configured service. Per-service
// failures are collected so one broken channel does not mask the rest.
func (n *ShoutrrrNotifier) Send(title, message string) error {
	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	errs := n.sender.Send(message, &params)

	var failed []string
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err.Error())
		}
	}
	if len(failed) == 0 {
		return nil
	}

	n.log.Warn("notification delivery failed",
		"title", title, "failures", len(failed))
	return errors.Newf("sending notification: %s", strings.Join(failed, "; ")).
		Component("notify").
		Category(errors.CategoryNotification).
		Build()
}
