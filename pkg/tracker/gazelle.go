package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lucperkins/rek"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/qmaint/pkg/httputils"
	"github.com/autobrr/qmaint/pkg/logger"
)

type GazelleConfig struct {
	URL     string   `koanf:"url"`
	Key     string   `koanf:"api_key"`
	Domains []string `koanf:"domains"`
}

// Gazelle queries a gazelle-based tracker's ajax API to verify whether a
// torrent hash is still registered.
type Gazelle struct {
	name string
	cfg  GazelleConfig
	http *http.Client
	log  *logrus.Entry
}

func NewGazelle(name string, c GazelleConfig) *Gazelle {
	return &Gazelle{
		name: name,
		cfg:  c,
		http: httputils.NewRetryableHttpClient(15*time.Second, ratelimit.New(1, ratelimit.WithoutSlack)),
		log:  logger.GetLogger(name + "-api"),
	}
}

func (c *Gazelle) Name() string {
	return c.name
}

func (c *Gazelle) Check(host string) bool {
	for _, d := range c.cfg.Domains {
		if strings.Contains(strings.ToLower(host), strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func (c *Gazelle) IsUnregistered(ctx context.Context, hash string) (bool, error) {
	type Response struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}

	c.log.Tracef("Querying %s API for torrent hash: %s", c.name, hash)

	requestURL := fmt.Sprintf("%s/ajax.php?action=torrent&hash=%s",
		strings.TrimSuffix(c.cfg.URL, "/"), strings.ToUpper(hash))

	resp, err := rek.Get(requestURL,
		rek.Client(c.http),
		rek.Headers(map[string]string{
			"Authorization": fmt.Sprintf("token %s", c.cfg.Key),
		}),
		rek.Context(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("%s: request torrent: %w", c.name, err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		return false, fmt.Errorf("%s: validate torrent response: %s", c.name, resp.Status())
	}

	b := new(Response)
	if err := json.NewDecoder(resp.Body()).Decode(b); err != nil {
		return false, fmt.Errorf("%s: decode torrent response: %w", c.name, err)
	}

	return b.Status == "failure" && b.Error == "bad parameters", nil
}
