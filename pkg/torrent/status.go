package torrent

import (
	"strings"
)

var (
	// defaultUnregisteredStatuses holds the default list if none is provided in config.
	defaultUnregisteredStatuses = []string{
		"complete season uploaded",
		"dead",
		"dupe",
		"infohash not found",
		"not exist",
		"not registered",
		"nuked",
		"pack is available",
		"retitled",
		"season pack",
		"specifically banned",
		"this torrent does not exist",
		"torrent does not exist",
		"torrent has been deleted",
		"torrent has been nuked",
		"torrent is not authorized for use on this tracker",
		"torrent is not found",
		"torrent not found",
		"torrent not registered with this tracker",
		"unregistered",
	}

	trackerDownStatuses = []string{
		// libtorrent HTTP status messages
		"continue",              // 100 - server still processing
		"multiple choices",      // 300 - could indicate load balancer issues
		"not modified",          // 304 - could be caching issues
		"bad request",           // 400
		"unauthorized",          // 401
		"forbidden",             // 403
		"internal server error", // 500
		"not implemented",       // 501
		"bad gateway",           // 502
		"service unavailable",   // 503
		"moved permanently",     // 301
		"moved temporarily",     // 302
		"(unknown http error)",

		// tracker/network errors
		"down",
		"maintenance",
		"tracker is down",
		"tracker unavailable",
		"truncated",
		"unreachable",
		"not working",
		"not responding",
		"timeout",
		"refused",
		"no connection",
		"cannot connect",
		"connection failed",
		"ssl error",
		"no data",
		"timed out",
		"temporarily disabled",
		"unresolvable",
		"host not found",
		"offline",
	}
)

// StatusClassifier decides whether a tracker announce message means the
// torrent is unregistered. It fails closed: tracker-down statuses and
// messages matching no known phrase are never classified as unregistered.
type StatusClassifier struct {
	statuses   map[string]struct{}
	perTracker map[string]map[string]struct{}
}

// NewStatusClassifier builds a classifier from configured phrase lists. An
// empty statuses list selects the built-in defaults. perTracker overrides the
// phrase list for a specific tracker host (case-insensitive).
func NewStatusClassifier(statuses []string, perTracker map[string][]string) *StatusClassifier {
	if len(statuses) == 0 {
		statuses = defaultUnregisteredStatuses
	}

	c := &StatusClassifier{
		statuses:   make(map[string]struct{}, len(statuses)),
		perTracker: make(map[string]map[string]struct{}, len(perTracker)),
	}

	for _, s := range statuses {
		c.statuses[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	for host, list := range perTracker {
		m := make(map[string]struct{}, len(list))
		for _, s := range list {
			m[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
		}
		c.perTracker[strings.ToLower(strings.TrimSpace(host))] = m
	}

	return c
}

// IsTrackerDown reports whether the message indicates tracker or network
// trouble rather than a verdict about the torrent.
func IsTrackerDown(message string) bool {
	if message == "" {
		return false
	}

	status := strings.ToLower(message)
	for _, v := range trackerDownStatuses {
		if strings.Contains(status, v) {
			return true
		}
	}

	return false
}

// IsUnregistered checks every tracker of the torrent and returns the first
// matching announce message. Tracker-down messages are skipped, unknown
// messages never match.
func (c *StatusClassifier) IsUnregistered(t *Torrent) (bool, string) {
	for _, tr := range t.Trackers {
		if tr.Message == "" || IsTrackerDown(tr.Message) {
			continue
		}

		statuses := c.statuses
		if override, ok := c.perTracker[strings.ToLower(tr.Host)]; ok {
			statuses = override
		}

		msg := strings.ToLower(tr.Message)
		for phrase := range statuses {
			if strings.Contains(msg, phrase) {
				return true, tr.Message
			}
		}
	}

	return false, ""
}

// HasAnnounceData reports whether at least one tracker returned a message we
// can reason about. Without data the detectors must abstain.
func (c *StatusClassifier) HasAnnounceData(t *Torrent) bool {
	for _, tr := range t.Trackers {
		if tr.Message != "" && !IsTrackerDown(tr.Message) {
			return true
		}
	}
	return false
}
