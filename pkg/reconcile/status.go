package reconcile

import (
	"sync"
	"time"
)

// Phase is where in the cycle an instance currently is.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFetching   Phase = "fetching"
	PhaseEvaluating Phase = "evaluating"
	PhaseApplying   Phase = "applying"
	PhaseRecording  Phase = "recording"
)

// InstanceStatus is the read model for one instance, replaced wholesale at
// the end of each cycle. Readers never see a half-updated cycle.
type InstanceStatus struct {
	Instance string
	Phase    Phase

	LastCycleStart time.Time
	LastCycleEnd   time.Time
	LastError      string

	Torrents int
	Applied  int
	Skipped  int
	Failed   int
}

// StatusBoard holds the latest status per instance.
type StatusBoard struct {
	mu sync.RWMutex
	m  map[string]InstanceStatus
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{m: make(map[string]InstanceStatus)}
}

func (b *StatusBoard) Set(s InstanceStatus) {
	b.mu.Lock()
	b.m[s.Instance] = s
	b.mu.Unlock()
}

func (b *StatusBoard) SetPhase(instance string, p Phase) {
	b.mu.Lock()
	s := b.m[instance]
	s.Instance = instance
	s.Phase = p
	b.m[instance] = s
	b.mu.Unlock()
}

func (b *StatusBoard) Get(instance string) (InstanceStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.m[instance]
	return s, ok
}

func (b *StatusBoard) All() []InstanceStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]InstanceStatus, 0, len(b.m))
	for _, s := range b.m {
		out = append(out, s)
	}
	return out
}
