package client

import (
	"context"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/torrent"
)

// LogEntry is one line of the remote client's main log.
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Type      int    `json:"type"`
	Message   string `json:"message"`
}

// Interface is the fault-isolated adapter to one remote torrent client. All
// remote mutation goes through ApplyAction, which never returns an error:
// every failure is converted into a failed ActionOutcome so one bad action
// cannot abort the rest of a cycle.
type Interface interface {
	Type() string
	Connect(ctx context.Context) error
	GetTorrents(ctx context.Context) (map[string]*torrent.Torrent, error)
	CreateTags(ctx context.Context, tags []string) error
	ApplyAction(ctx context.Context, p action.Proposed) action.Outcome
	GetMainLog(ctx context.Context, sinceID int64) ([]LogEntry, error)
}
