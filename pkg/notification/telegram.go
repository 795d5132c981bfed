package notification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lucperkins/rek"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/httputils"
	"github.com/autobrr/qmaint/pkg/logger"
)

type telegramSender struct {
	cfg        config.TelegramConfig
	httpClient *http.Client
	log        *logrus.Entry
}

func NewTelegramSender(cfg config.TelegramConfig) Sender {
	return &telegramSender{
		cfg:        cfg,
		httpClient: httputils.NewRetryableHttpClient(30*time.Second, ratelimit.New(1, ratelimit.WithoutSlack)),
		log:        logger.GetLogger("telegram"),
	}
}

func (t *telegramSender) Name() string {
	return "telegram"
}

func (t *telegramSender) CanSend() bool {
	return t.cfg.BotToken != "" && t.cfg.ChatID != ""
}

func (t *telegramSender) Send(title, message string) error {
	payload := map[string]string{
		"chat_id": t.cfg.ChatID,
		"text":    fmt.Sprintf("%s\n\n%s", title, message),
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.cfg.BotToken)

	resp, err := rek.Post(url,
		rek.Client(t.httpClient),
		rek.Json(payload),
	)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body().Close()

	if resp.StatusCode() != http.StatusOK {
		var body struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body()).Decode(&body)
		return errors.Errorf("unexpected status: %v description: %v", resp.StatusCode(), body.Description)
	}

	return nil
}
