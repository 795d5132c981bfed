package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/client"
	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/detector"
	"github.com/autobrr/qmaint/pkg/eventlog"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/orphan"
	"github.com/autobrr/qmaint/pkg/torrent"
	"github.com/autobrr/qmaint/pkg/tracker"
)

// ClientFactory builds the adapter for one instance. Swappable in tests.
type ClientFactory func(name string, cfg config.InstanceConfiguration, dryRun bool) (client.Interface, error)

// Runner owns one worker per enabled instance and drives them on the
// configured interval. Instances are fully isolated: each worker runs in its
// own goroutine against its own client.
type Runner struct {
	cfg     *config.Configuration
	dryRun  bool
	factory ClientFactory

	events  *eventlog.Log
	status  *StatusBoard
	notify  Notifier
	scanner *orphan.Scanner

	workers map[string]*instanceWorker

	// latest snapshot per instance, reused by the orphan scanner so a scan
	// never triggers an extra fetch
	snapMu    sync.RWMutex
	snapshots map[string]map[string]*torrent.Torrent

	log *logrus.Entry
}

func New(cfg *config.Configuration, events *eventlog.Log, notify Notifier, dryRun bool, factory ClientFactory) (*Runner, error) {
	if factory == nil {
		factory = func(name string, icfg config.InstanceConfiguration, dry bool) (client.Interface, error) {
			return client.NewQBittorrent(name, icfg, dry)
		}
	}

	scanner, err := orphan.NewScanner(cfg.Orphan)
	if err != nil {
		return nil, fmt.Errorf("init orphan scanner: %w", err)
	}

	r := &Runner{
		cfg:       cfg,
		dryRun:    dryRun,
		factory:   factory,
		events:    events,
		status:    NewStatusBoard(),
		notify:    notify,
		scanner:   scanner,
		workers:   make(map[string]*instanceWorker),
		snapshots: make(map[string]map[string]*torrent.Torrent),
		log:       logger.GetLogger("reconcile"),
	}

	// workers get a deep copy of instances and rules; edits to the live
	// configuration cannot bleed into cycles already set up
	snap := cfg.Snapshot()

	deps := workerDeps{
		rules:        snap.Rules,
		hardLink:     cfg.HardLink,
		crossSeed:    cfg.CrossSeed,
		unregistered: cfg.Unregistered,
		verifyAPI:    tracker.Loaded() > 0,
		events:       events,
		status:       r.status,
		notify:       notify,
	}

	for name, icfg := range snap.Instances {
		if !icfg.IsEnabled() {
			r.log.Debugf("Instance %q disabled, skipping", name)
			continue
		}

		// a malformed instance is skipped with a reported error; the
		// remaining instances still get workers
		c, err := factory(name, icfg, dryRun)
		if err != nil {
			r.log.WithError(err).Warnf("Skipping instance %q", name)
			continue
		}

		w, err := newInstanceWorker(name, icfg, c, deps)
		if err != nil {
			r.log.WithError(err).Warnf("Skipping instance %q", name)
			continue
		}
		r.workers[name] = w
	}

	return r, nil
}

func (r *Runner) Status() *StatusBoard {
	return r.status
}

// Run drives all workers until ctx is cancelled. Each instance ticks on the
// shared scheduler interval but in its own goroutine, so a slow or
// unreachable instance never delays the others.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.workers) == 0 {
		return fmt.Errorf("no enabled instances configured")
	}

	interval := r.cfg.Scheduler.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	var wg sync.WaitGroup
	for name, w := range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.runWorker(ctx, name, w, interval)
		}()

		if w.cfg.OrphanScan {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.runOrphanScans(ctx, name, w.cfg)
			}()
		}
	}

	if r.cfg.CrossSeed.AcrossInstances {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.runCrossSeedSweeps(ctx, interval)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

func (r *Runner) runWorker(ctx context.Context, name string, w *instanceWorker, interval time.Duration) {
	r.log.Infof("Starting worker for %q, interval %s", name, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.storeSnapshot(name, w.runCycle(ctx))

	for {
		select {
		case <-ctx.Done():
			r.log.Debugf("Worker for %q stopping", name)
			return
		case <-ticker.C:
			r.storeSnapshot(name, w.runCycle(ctx))
		}
	}
}

// RunOnce executes a single cycle for the named instance, or for every
// enabled instance when name is empty.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	if name != "" {
		w, ok := r.workers[name]
		if !ok {
			return fmt.Errorf("no enabled instance named %q", name)
		}

		snap := w.runCycle(ctx)
		r.storeSnapshot(name, snap)

		if w.cfg.OrphanScan {
			r.scanOrphans(name, w.cfg)
		}
		return nil
	}

	names := make([]string, 0, len(r.workers))
	for n := range r.workers {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if err := r.RunOnce(ctx, n); err != nil {
			return err
		}
	}

	if r.cfg.CrossSeed.AcrossInstances {
		r.crossSeedSweep(ctx)
	}
	return nil
}

func (r *Runner) runCrossSeedSweeps(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.crossSeedSweep(ctx)
		}
	}
}

// crossSeedSweep pairs duplicates across instances that share storage. The
// per-cycle detector only sees one instance at a time; the sweep runs the
// same detection over the union of the latest snapshots and routes each
// pause to the instance that owns the torrent.
func (r *Runner) crossSeedSweep(ctx context.Context) {
	var union []*torrent.Torrent
	members := 0
	for name, w := range r.workers {
		if !w.cfg.PauseCrossSeeds {
			continue
		}
		snap := r.latestSnapshot(name)
		if snap == nil {
			continue
		}
		members++
		for _, t := range snap {
			union = append(union, t)
		}
	}
	if members < 2 {
		return
	}

	d := detector.NewCrossSeed(r.cfg.CrossSeed.Keep)
	merged, skipped := action.Merge(d.Detect(ctx, union))
	for _, o := range skipped {
		r.events.RecordOutcome(o)
	}

	byInstance := make(map[string][]action.Proposed)
	for _, p := range merged {
		byInstance[p.Instance] = append(byInstance[p.Instance], p)
	}

	for name, proposals := range byInstance {
		w, ok := r.workers[name]
		if !ok {
			continue
		}

		// writes to one instance stay serialized; a worker mid-cycle is
		// left alone and the next sweep catches up
		if !w.running.CompareAndSwap(false, true) {
			r.log.Debugf("Instance %q busy, deferring cross-instance pauses", name)
			continue
		}

		for _, p := range proposals {
			if ctx.Err() != nil {
				r.events.RecordOutcome(action.Skipped(p, "shutting down"))
				continue
			}

			actionCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), actionTimeout)
			r.events.RecordOutcome(w.client.ApplyAction(actionCtx, p))
			cancel()
		}
		w.running.Store(false)
	}
}

func (r *Runner) storeSnapshot(name string, torrents map[string]*torrent.Torrent) {
	if torrents == nil {
		return
	}

	r.snapMu.Lock()
	r.snapshots[name] = torrents
	r.snapMu.Unlock()
}

func (r *Runner) latestSnapshot(name string) map[string]*torrent.Torrent {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snapshots[name]
}

func (r *Runner) runOrphanScans(ctx context.Context, name string, icfg config.InstanceConfiguration) {
	interval := r.cfg.Orphan.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scanOrphans(name, icfg)
		}
	}
}

// scanOrphans reports files in the download location no torrent references.
// Report-only: the scan never removes anything.
func (r *Runner) scanOrphans(name string, icfg config.InstanceConfiguration) {
	snap := r.latestSnapshot(name)
	if snap == nil {
		r.log.Debugf("No snapshot for %q yet, skipping orphan scan", name)
		return
	}

	orphans := r.scanner.Scan(snap, icfg.DownloadPath, icfg.DownloadPathMapping)
	r.log.Infof("Orphan scan on %q found %d entries", name, len(orphans))

	for _, o := range orphans {
		details := o.Path
		if o.IsFile {
			details = fmt.Sprintf("%s (%s)", o.Path, humanize.IBytes(uint64(o.Size)))
		}

		r.events.Record(eventlog.Entry{
			Instance: name,
			Action:   "orphan",
			Details:  details,
			Result:   "observed",
		})
	}
}
