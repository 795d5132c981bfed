package notification

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/httputils"
	"github.com/autobrr/qmaint/pkg/logger"
)

type DiscordMessage struct {
	Content  interface{}    `json:"content"`
	Username string         `json:"username,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Timestamp   time.Time `json:"timestamp"`
}

const embedColorBlue = 0x58b9ff

type discordSender struct {
	cfg        config.DiscordConfig
	httpClient *http.Client
	log        *logrus.Entry
}

func NewDiscordSender(cfg config.DiscordConfig) Sender {
	return &discordSender{
		cfg:        cfg,
		httpClient: httputils.NewRetryableHttpClient(30*time.Second, ratelimit.New(1)),
		log:        logger.GetLogger("discord"),
	}
}

func (d *discordSender) Name() string {
	return "discord"
}

func (d *discordSender) CanSend() bool {
	return d.cfg.WebhookURL != ""
}

func (d *discordSender) Send(title, message string) error {
	msg := DiscordMessage{
		Content:  nil,
		Username: "qmaint",
		Embeds: []DiscordEmbed{{
			Title:       title,
			Description: message,
			Color:       embedColorBlue,
			Timestamp:   time.Now(),
		}},
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal discord message")
	}

	req, err := http.NewRequest(http.MethodPost, d.cfg.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(res.Body)
		return errors.Errorf("unexpected status: %v body: %v", res.StatusCode, string(body))
	}

	return nil
}
