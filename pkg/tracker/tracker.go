package tracker

import (
	"context"
	"net/url"
	"strings"

	"github.com/bobesa/go-domain-util/domainutil"
)

type Config struct {
	// Gazelle holds API credentials per gazelle-based tracker, keyed by a
	// friendly name (e.g. red, ops).
	Gazelle map[string]GazelleConfig `koanf:"gazelle"`
}

// Interface is an optional tracker-side API used to verify a torrent's
// registration state beyond announce-message matching.
type Interface interface {
	Name() string
	Check(host string) bool
	IsUnregistered(ctx context.Context, hash string) (bool, error)
}

var loaded []Interface

// Init builds the tracker registry from configuration. Safe to call with an
// empty config; Get then always returns nil and detectors rely on announce
// messages alone.
func Init(cfg Config) {
	loaded = loaded[:0]

	for name, gc := range cfg.Gazelle {
		if gc.Key == "" || gc.URL == "" {
			continue
		}
		loaded = append(loaded, NewGazelle(name, gc))
	}
}

// Get returns the tracker API responsible for the given announce host, or
// nil when none is configured.
func Get(host string) Interface {
	for _, t := range loaded {
		if t.Check(host) {
			return t
		}
	}
	return nil
}

func Loaded() int {
	return len(loaded)
}

// ParseDomain reduces an announce URL to its registrable domain, e.g.
// "https://tracker.example.org:2710/announce" -> "example.org".
func ParseDomain(trackerURL string) string {
	u, err := url.Parse(trackerURL)
	if err != nil || u.Host == "" {
		// bare host without scheme
		if d := domainutil.Domain(strings.TrimSpace(trackerURL)); d != "" {
			return d
		}
		return trackerURL
	}

	host := u.Hostname()
	if d := domainutil.Domain(host); d != "" {
		return d
	}
	return host
}
