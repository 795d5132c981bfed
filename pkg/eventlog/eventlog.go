package eventlog

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/logger"
)

// Entry is one recorded maintenance event. Entries are append-only facts;
// they are never updated after being recorded.
type Entry struct {
	Time     time.Time `json:"time"`
	Instance string    `json:"instance"`
	Hash     string    `json:"hash,omitempty"`
	Torrent  string    `json:"torrent,omitempty"`
	Action   string    `json:"action"`
	Details  string    `json:"details,omitempty"`
	Result   string    `json:"result"`
	Reason   string    `json:"reason,omitempty"`
}

func FromOutcome(o action.Outcome) Entry {
	return Entry{
		Time:     o.Time,
		Instance: o.Action.Instance,
		Hash:     o.Action.Hash,
		Torrent:  o.Action.TorrentName,
		Action:   string(o.Action.Kind),
		Details:  o.Action.Describe(),
		Result:   string(o.Result),
		Reason:   o.Reason,
	}
}

// Log keeps the most recent entries in memory for the status read model,
// optionally mirrors each entry to a size-rotated JSONL file, and fans
// entries out to subscribers. Slow subscribers are skipped, never waited on.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	keep    int
	nextSub int
	subs    map[int]chan Entry

	sink *lumberjack.Logger
	log  *logrus.Entry
}

func New(cfg config.EventLogConfig) *Log {
	keep := cfg.Keep
	if keep <= 0 {
		keep = 1000
	}

	l := &Log{
		keep: keep,
		subs: make(map[int]chan Entry),
		log:  logger.GetLogger("eventlog"),
	}

	if cfg.Path != "" {
		l.sink = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    max(cfg.MaxSizeMB, 1),
			MaxBackups: cfg.MaxBackups,
		}
	}

	return l
}

func (l *Log) Record(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.keep {
		l.entries = l.entries[len(l.entries)-l.keep:]
	}
	subs := make([]chan Entry, 0, len(l.subs))
	for _, ch := range l.subs {
		subs = append(subs, ch)
	}
	l.mu.Unlock()

	if l.sink != nil {
		if b, err := json.Marshal(e); err == nil {
			l.sink.Write(append(b, '\n'))
		} else {
			l.log.WithError(err).Warn("Failed to encode event")
		}
	}

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// subscriber is behind, drop rather than stall recording
		}
	}
}

func (l *Log) RecordOutcome(o action.Outcome) {
	l.Record(FromOutcome(o))
}

// Recent returns up to n of the latest entries, newest last. n <= 0 returns
// everything retained.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}

	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Subscribe returns a channel receiving every entry recorded after the call,
// and a function that cancels the subscription.
func (l *Log) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, 64)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	return ch, func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *Log) Close() error {
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}
