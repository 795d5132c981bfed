package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/ratelimit"

	"github.com/autobrr/qmaint/pkg/httputils"
)

// logSession reads /api/v2/log/main, which the torrent library does not
// expose. It keeps its own authenticated cookie session and re-logs-in once
// when the session expires.
type logSession struct {
	url      string
	user     string
	password string

	mu       sync.Mutex
	http     *http.Client
	loggedIn bool
}

func newLogSession(url, user, password string) *logSession {
	jar, _ := cookiejar.New(nil)

	hc := httputils.NewRetryableHttpClient(30*time.Second, ratelimit.New(5))
	hc.Jar = jar

	return &logSession{
		url:      url,
		user:     user,
		password: password,
		http:     hc,
	}
}

func (s *logSession) login(ctx context.Context) error {
	form := url.Values{
		"username": {s.user},
		"password": {s.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.url+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Ok") {
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	s.loggedIn = true
	return nil
}

func (s *logSession) mainLog(ctx context.Context, sinceID int64) ([]LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggedIn {
		if err := s.login(ctx); err != nil {
			return nil, err
		}
	}

	entries, status, err := s.fetch(ctx, sinceID)
	if err != nil {
		return nil, err
	}

	// expired session, retry once with fresh auth
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if err := s.login(ctx); err != nil {
			return nil, err
		}
		entries, status, err = s.fetch(ctx, sinceID)
		if err != nil {
			return nil, err
		}
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("get main log: status %d", status)
	}

	return entries, nil
}

func (s *logSession) fetch(ctx context.Context, sinceID int64) ([]LogEntry, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.url+"/api/v2/log/main?last_known_id="+strconv.FormatInt(sinceID, 10), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var entries []LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode main log: %w", err)
	}

	return entries, resp.StatusCode, nil
}
