package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/client"
	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/detector"
	"github.com/autobrr/qmaint/pkg/eventlog"
	"github.com/autobrr/qmaint/pkg/hardlinkfilemap"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/logwatch"
	"github.com/autobrr/qmaint/pkg/rules"
	"github.com/autobrr/qmaint/pkg/torrent"
)

// how long one remote action may take once started; an in-flight action is
// allowed to finish during shutdown, bounded by this
const actionTimeout = 30 * time.Second

// instanceWorker runs the reconcile loop for one instance. Workers never
// share state: a failure on one instance cannot affect another.
type instanceWorker struct {
	name string
	cfg  config.InstanceConfiguration

	client     client.Interface
	engine     *rules.Engine
	classifier *torrent.StatusClassifier
	hardLink   config.HardLinkConfig
	crossSeed  config.CrossSeedConfig
	verifyAPI  bool

	events *eventlog.Log
	status *StatusBoard
	notify Notifier

	watcher      *logwatch.Watcher
	seenPausedUP map[string]struct{}

	connected bool
	running   atomic.Bool

	log *logrus.Entry
}

// Notifier is the slice of notification.Multi the worker needs.
type Notifier interface {
	Send(title, message string)
}

func newInstanceWorker(name string, cfg config.InstanceConfiguration, c client.Interface, deps workerDeps) (*instanceWorker, error) {
	engine, errs := rules.NewEngine(deps.rules)
	for _, e := range errs {
		logger.GetLogger(name).WithError(e.Err).Warnf("Skipping invalid rule %q", e.Rule)
	}

	var watcher *logwatch.Watcher
	if cfg.WatchLogs {
		w, err := logwatch.New(name)
		if err != nil {
			return nil, fmt.Errorf("init log watcher: %w", err)
		}
		watcher = w
	}

	return &instanceWorker{
		name:         name,
		cfg:          cfg,
		client:       c,
		engine:       engine,
		classifier:   torrent.NewStatusClassifier(deps.unregistered.Statuses, deps.unregistered.PerTrackerStatuses),
		hardLink:     deps.hardLink,
		crossSeed:    deps.crossSeed,
		verifyAPI:    deps.verifyAPI,
		events:       deps.events,
		status:       deps.status,
		notify:       deps.notify,
		watcher:      watcher,
		seenPausedUP: make(map[string]struct{}),
		log:          logger.GetLogger(name),
	}, nil
}

// workerDeps carries the shared configuration and sinks workers are built
// with.
type workerDeps struct {
	rules        []config.RuleConfiguration
	hardLink     config.HardLinkConfig
	crossSeed    config.CrossSeedConfig
	unregistered config.UnregisteredConfig
	verifyAPI    bool

	events *eventlog.Log
	status *StatusBoard
	notify Notifier
}

// runCycle executes one full reconcile pass. It returns the snapshot so the
// orphan scanner can reuse it, and never returns an error: every failure is
// recorded as an outcome against this instance.
func (w *instanceWorker) runCycle(ctx context.Context) map[string]*torrent.Torrent {
	// a cycle still running means the interval is too short for this
	// instance; skip rather than stack cycles
	if !w.running.CompareAndSwap(false, true) {
		w.log.Warn("Previous cycle still running, skipping this tick")
		return nil
	}
	defer w.running.Store(false)

	start := time.Now()
	st := InstanceStatus{
		Instance:       w.name,
		LastCycleStart: start,
	}

	// fetch
	w.status.SetPhase(w.name, PhaseFetching)
	torrents, err := w.fetch(ctx)
	if err != nil {
		w.log.WithError(err).Error("Failed fetching torrents")
		w.connected = false

		outcome := action.Failed(action.Proposed{
			Instance: w.name,
			Kind:     action.KindFetch,
			Source:   "fetch",
		}, err)
		w.events.RecordOutcome(outcome)

		st.Phase = PhaseIdle
		st.LastCycleEnd = time.Now()
		st.LastError = err.Error()
		st.Failed = 1
		w.status.Set(st)
		return nil
	}
	st.Torrents = len(torrents)
	w.log.Debugf("Fetched %d torrents", len(torrents))

	// evaluate
	w.status.SetPhase(w.name, PhaseEvaluating)
	merged, skipped := w.evaluate(ctx, torrents)

	// apply
	w.status.SetPhase(w.name, PhaseApplying)
	outcomes := w.apply(ctx, merged)
	outcomes = append(outcomes, skipped...)

	// record
	w.status.SetPhase(w.name, PhaseRecording)
	for _, o := range outcomes {
		w.events.RecordOutcome(o)

		switch o.Result {
		case action.ResultApplied:
			st.Applied++
		case action.ResultSkipped:
			st.Skipped++
		case action.ResultFailed:
			st.Failed++
		}
	}

	w.monitorPausedUp(torrents)
	w.watchLogs(ctx)
	w.notifySummary(st)

	st.Phase = PhaseIdle
	st.LastCycleEnd = time.Now()
	w.status.Set(st)

	w.log.Infof("Cycle done in %s: %d applied, %d skipped, %d failed",
		time.Since(start).Truncate(time.Millisecond), st.Applied, st.Skipped, st.Failed)

	return torrents
}

func (w *instanceWorker) fetch(ctx context.Context) (map[string]*torrent.Torrent, error) {
	if !w.connected {
		if err := w.client.Connect(ctx); err != nil {
			return nil, err
		}
		w.connected = true
	}

	return w.client.GetTorrents(ctx)
}

func (w *instanceWorker) evaluate(ctx context.Context, torrents map[string]*torrent.Torrent) ([]action.Proposed, []action.Outcome) {
	sorted := detector.Sorted(torrents)

	var proposals []action.Proposed
	for _, t := range sorted {
		proposals = append(proposals, w.engine.Evaluate(t)...)
	}

	for _, d := range w.detectors(torrents) {
		out := d.Detect(ctx, sorted)
		w.log.Debugf("Detector %s proposed %d actions", d.Name(), len(out))
		proposals = append(proposals, out...)
	}

	return action.Merge(proposals)
}

// detectors assembles the per-cycle detector set. The hardlink detector gets
// a link map built from this cycle's snapshot so its counts match the files
// the instance reported just now; with tag_no_hard_links off it runs against
// a noop map that abstains for every torrent, so no disk is touched.
func (w *instanceWorker) detectors(torrents map[string]*torrent.Torrent) []detector.Detector {
	var ds []detector.Detector

	var hfm hardlinkfilemap.HardlinkFileMapI
	if w.cfg.TagNoHardLinks {
		hfm = hardlinkfilemap.New(torrents, w.cfg.DownloadPathMapping)
	} else {
		hfm = hardlinkfilemap.NewNoopHardlinkFileMap()
	}
	ds = append(ds, detector.NewHardLink(hfm, w.hardLink.GracePeriod))

	if w.cfg.PauseCrossSeeds {
		ds = append(ds, detector.NewCrossSeed(w.crossSeed.Keep))
	}

	if w.cfg.TagUnregistered {
		ds = append(ds, detector.NewUnregistered(w.classifier, w.verifyAPI))
	}

	return ds
}

func (w *instanceWorker) apply(ctx context.Context, merged []action.Proposed) []action.Outcome {
	if len(merged) == 0 {
		return nil
	}

	// tags must exist before they can be added to torrents
	if tags := collectTags(merged); len(tags) > 0 {
		if err := w.client.CreateTags(ctx, tags); err != nil {
			w.log.WithError(err).Warn("Failed creating tags")
		}
	}

	outcomes := make([]action.Outcome, 0, len(merged))
	for _, p := range merged {
		// stop starting new actions once shutdown begins; the action in
		// flight was already allowed to finish
		if ctx.Err() != nil {
			outcomes = append(outcomes, action.Skipped(p, "shutting down"))
			continue
		}

		actionCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), actionTimeout)
		outcomes = append(outcomes, w.client.ApplyAction(actionCtx, p))
		cancel()
	}

	return outcomes
}

func collectTags(proposals []action.Proposed) []string {
	seen := make(map[string]struct{})
	var tags []string

	for _, p := range proposals {
		if p.Kind != action.KindAddTag || p.Tag == "" {
			continue
		}
		if _, ok := seen[p.Tag]; ok {
			continue
		}
		seen[p.Tag] = struct{}{}
		tags = append(tags, p.Tag)
	}

	sort.Strings(tags)
	return tags
}

// monitorPausedUp records completed torrents that show up paused, once per
// transition. The set resets when a torrent resumes.
func (w *instanceWorker) monitorPausedUp(torrents map[string]*torrent.Torrent) {
	if !w.cfg.MonitorPausedUp {
		return
	}

	current := make(map[string]struct{})
	for _, t := range torrents {
		state := strings.ToLower(t.State)
		if state != "pausedup" && state != "stoppedup" {
			continue
		}
		current[t.Hash] = struct{}{}

		if _, seen := w.seenPausedUP[t.Hash]; seen {
			continue
		}

		w.log.Infof("Torrent paused after completion: %s (%s)", t.Hash, t.Name)
		w.events.Record(eventlog.Entry{
			Instance: w.name,
			Hash:     t.Hash,
			Torrent:  t.Name,
			Action:   "pausedUP",
			Details:  "torrent paused after completion",
			Result:   "observed",
		})
	}

	w.seenPausedUP = current
}

// watchLogs polls the instance's main log for torrent removals and records
// them as events.
func (w *instanceWorker) watchLogs(ctx context.Context) {
	if w.watcher == nil {
		return
	}

	entries, err := w.client.GetMainLog(ctx, w.watcher.LastID())
	if err != nil {
		w.log.WithError(err).Debug("Failed fetching main log")
		return
	}

	events := w.watcher.Process(entries)
	for _, e := range events {
		w.events.Record(eventlog.Entry{
			Time:     e.Time,
			Instance: w.name,
			Torrent:  e.Torrent,
			Action:   "removed",
			Details:  e.Message,
			Result:   "observed",
		})
	}

	if w.notify != nil && len(events) > 0 {
		names := make([]string, 0, len(events))
		for _, e := range events {
			names = append(names, e.Torrent)
		}
		w.notify.Send(
			fmt.Sprintf("qmaint: %s", w.name),
			fmt.Sprintf("%d torrent(s) removed:\n%s", len(names), strings.Join(names, "\n")),
		)
	}
}

func (w *instanceWorker) notifySummary(st InstanceStatus) {
	if w.notify == nil || st.Applied+st.Failed == 0 {
		return
	}

	w.notify.Send(
		fmt.Sprintf("qmaint: %s", w.name),
		fmt.Sprintf("%d torrents checked\n%d actions applied, %d skipped, %d failed",
			st.Torrents, st.Applied, st.Skipped, st.Failed),
	)
}
