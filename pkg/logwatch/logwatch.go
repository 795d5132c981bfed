package logwatch

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/client"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/regex"
)

// removal lines as qBittorrent writes them to the main log, e.g.
// "'Some.Release' was removed from transfer list."
var removedPatterns = []string{
	`^'(.+)' was removed from transfer list`,
	`^Torrent '(.+)' was removed`,
}

// Event is one torrent removal observed in the remote client's log.
type Event struct {
	Instance string
	Torrent  string
	Message  string
	Time     time.Time
}

// Watcher turns raw main-log entries into removal events. It carries the
// cursor of the last log id seen so each poll only asks for new lines.
type Watcher struct {
	instance string
	patterns []*regex.Pattern
	lastID   int64
	log      *logrus.Entry
}

func New(instance string) (*Watcher, error) {
	patterns, err := regex.CompileAll(removedPatterns)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		instance: instance,
		patterns: patterns,
		lastID:   -1,
		log:      logger.GetLogger("logwatch"),
	}, nil
}

// LastID is the id to pass as last_known_id on the next log fetch.
func (w *Watcher) LastID() int64 {
	return w.lastID
}

// Process consumes a batch of log entries, advances the cursor and returns
// the removal events found. Entries at or below the cursor are ignored.
func (w *Watcher) Process(entries []client.LogEntry) []Event {
	var events []Event

	for _, e := range entries {
		if e.ID <= w.lastID {
			continue
		}
		w.lastID = e.ID

		for _, p := range w.patterns {
			name, ok := regex.Capture(e.Message, p)
			if !ok {
				continue
			}

			w.log.Debugf("Removal seen on %s: %q", w.instance, name)
			events = append(events, Event{
				Instance: w.instance,
				Torrent:  name,
				Message:  e.Message,
				Time:     time.Unix(e.Timestamp, 0),
			})
			break
		}
	}

	return events
}
