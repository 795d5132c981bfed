package notification

import (
	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/logger"
)

// Sender delivers a cycle summary to one external service. Senders are
// best-effort: delivery failures are logged and never fail a cycle.
type Sender interface {
	Name() string
	CanSend() bool
	Send(title string, message string) error
}

// Multi fans a message out to every configured sender.
type Multi struct {
	senders []Sender
	log     *logrus.Entry
}

func NewMulti(cfg config.NotificationsConfig) *Multi {
	m := &Multi{
		log: logger.GetLogger("notification"),
	}

	if cfg.Telegram.Enabled {
		m.senders = append(m.senders, NewTelegramSender(cfg.Telegram))
	}
	if cfg.Discord.Enabled {
		m.senders = append(m.senders, NewDiscordSender(cfg.Discord))
	}

	return m
}

func (m *Multi) Send(title, message string) {
	for _, s := range m.senders {
		if !s.CanSend() {
			m.log.Debugf("Sender %s not configured, skipping", s.Name())
			continue
		}

		if err := s.Send(title, message); err != nil {
			m.log.WithError(err).Warnf("Failed to send %s notification", s.Name())
			continue
		}

		m.log.Debugf("Notification sent via %s", s.Name())
	}
}
