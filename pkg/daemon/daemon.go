// Package daemon watches compositor hotplug events and re-applies the best
// matching profile. One goroutine owns all mutable state; the event stream,
// the udev monitor and the lid watcher only talk to it through channels.
package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/config"
	"codeberg.org/lkiss/wlplug/pkg/lid"
	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/profilematch"
	"codeberg.org/lkiss/wlplug/pkg/profilestore"
)

// Delays collects every timing knob, so tests can shrink them.
type Delays struct {
	// Native debounces events the compositor reported itself.
	Native time.Duration
	// UdevSettle absorbs the output churn right after a DRM uevent, when
	// the compositor may still be reconfiguring.
	UdevSettle time.Duration
	// HeuristicBase is the base settle for inferred (niri) events; the
	// configured niri_settle_seconds is added on top.
	HeuristicBase time.Duration
	// Retry is the pause before re-detecting after a connection failure.
	Retry time.Duration
	// LidSettle delays acting on a lid notification.
	LidSettle time.Duration
	// LidRetry is the one-shot re-check after a lid open, for panels that
	// enumerate late.
	LidRetry time.Duration
	// LoopWindow is how long after an apply the A-B-A suppression holds.
	LoopWindow time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Native:        500 * time.Millisecond,
		UdevSettle:    2 * time.Second,
		HeuristicBase: 3 * time.Second,
		Retry:         5 * time.Second,
		LidSettle:     1500 * time.Millisecond,
		LidRetry:      3 * time.Second,
		LoopWindow:    30 * time.Second,
	}
}

// LidWatcher is the subset of lid.Watcher the daemon needs.
type LidWatcher interface {
	Current() (lid.State, error)
	Watch(ctx context.Context, onChange func(lid.State)) error
}

// Daemon re-applies profiles on hotplug. Configure the exported fields
// before calling Run.
type Daemon struct {
	// Connect detects and connects to the running compositor.
	Connect func() (compositor.Client, error)
	// Hotplug optionally feeds secondary (udev) events into the loop.
	Hotplug func(ctx context.Context, events chan<- compositor.Event) error
	// Lid optionally reports lid state. Only used with clamshell_mode.
	Lid LidWatcher

	Delays Delays

	store profilestore.Store
	cfg   *config.Settings
	log   *zap.SugaredLogger

	// owned by the loop goroutine
	lidState    lid.State
	lastApplied string
	prevApplied string
	lastApplyAt time.Time
	preClose    *output.Profile
}

func New(store profilestore.Store, cfg *config.Settings, log *zap.SugaredLogger) *Daemon {
	return &Daemon{
		Delays: DefaultDelays(),
		store:  store,
		cfg:    cfg,
		log:    log,
	}
}

// Run detects the compositor and listens until ctx is cancelled, going back
// to detection after connection failures.
func (d *Daemon) Run(ctx context.Context) error {
	for {
		client, err := d.Connect()
		if err != nil {
			d.log.Warnw("no compositor reachable, retrying", "error", err, "retry", d.Delays.Retry)
			if !sleepCtx(ctx, d.Delays.Retry) {
				return ctx.Err()
			}
			continue
		}

		d.log.Infow("detected compositor", "compositor", client.Name())
		err = d.listen(ctx, client)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		d.log.Warnw("connection to compositor lost, retrying", "error", err, "retry", d.Delays.Retry)
		if !sleepCtx(ctx, d.Delays.Retry) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// errStreamClosed marks a cleanly closed event stream, which still means
// the compositor went away.
var errStreamClosed = errors.New("event stream closed")

func (d *Daemon) listen(ctx context.Context, client compositor.Client) error {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan compositor.Event, 16)
	errc := make(chan error, 1)
	go func() { errc <- client.StreamEvents(cctx, events) }()

	if d.Hotplug != nil {
		go func() {
			if err := d.Hotplug(cctx, events); err != nil && cctx.Err() == nil {
				d.log.Debugw("udev monitor stopped", "error", err)
			}
		}()
	}

	debounce := &timerSlot{}
	lidTimer := &timerSlot{}
	defer debounce.Stop()
	defer lidTimer.Stop()

	s := &session{d: d, client: client, debounce: debounce, lidTimer: lidTimer}

	calls := make(chan func(), 16)
	if d.cfg.ClamshellMode && d.Lid != nil {
		if state, err := d.Lid.Current(); err == nil {
			d.lidState = state
		}
		go func() {
			err := d.Lid.Watch(cctx, func(state lid.State) {
				select {
				case calls <- func() { s.handleLid(state) }:
				case <-cctx.Done():
				}
			})
			if err != nil && cctx.Err() == nil {
				d.log.Warnw("lid watcher stopped", "error", err)
			}
		}()
	}

	d.log.Infow("listening for output changes", "compositor", client.Name(), "lid", d.lidState.String())
	s.applyBest(true)

	for {
		select {
		case <-cctx.Done():
			return cctx.Err()

		case err := <-errc:
			if err == nil {
				err = errStreamClosed
			}
			return err

		case ev := <-events:
			delay := d.delayFor(ev.Source)
			d.log.Infow("output event", "kind", ev.Kind, "output", ev.Output,
				"source", ev.Source.String(), "debounce", delay)
			debounce.Reset(delay)

		case <-debounce.C():
			debounce.Stop()
			s.applyBest(false)

		case <-lidTimer.C():
			lidTimer.Stop()
			if s.lidAction != nil {
				action := s.lidAction
				s.lidAction = nil
				action()
			}

		case f := <-calls:
			f()
		}
	}
}

func (d *Daemon) delayFor(source compositor.EventSource) time.Duration {
	switch source {
	case compositor.SourceUdev:
		return d.Delays.UdevSettle
	case compositor.SourceHeuristic:
		return d.Delays.HeuristicBase + time.Duration(d.cfg.NiriSettleSeconds)*time.Second
	}
	return d.Delays.Native
}

func (d *Daemon) applyOptions() compositor.ApplyOptions {
	return compositor.ApplyOptions{
		UseDescription: d.cfg.UseDescription,
		HyprlandV2:     d.cfg.HyprlandMonitorV2,
		UpdateSDDM:     d.cfg.UpdateSDDM,
		UpdateGreetd:   d.cfg.UpdateGreetd,
	}
}

// session is the per-connection state of the listen loop.
type session struct {
	d        *Daemon
	client   compositor.Client
	debounce *timerSlot
	lidTimer *timerSlot

	// pending lid action, armed together with lidTimer
	lidAction func()
}

// applyBest queries live state, matches a profile and applies it. Errors
// are logged, not returned: a broken apply must not kill the listen loop,
// and connection loss surfaces through the event stream anyway.
func (s *session) applyBest(forced bool) {
	d := s.d

	outs, err := s.client.GetOutputs()
	if err != nil {
		d.log.Errorw("query outputs", "error", err)
		return
	}

	fingerprint := output.Fingerprint(outs)
	d.log.Infow("current fingerprint", "fingerprint", fingerprint)

	profiles, err := d.store.LoadAll()
	if err != nil {
		d.log.Errorw("load profiles", "error", err)
		return
	}

	match := profilematch.FindBestMatch(profiles, fingerprint, outs, profilematch.Options{})
	if match == nil {
		s.handleNoMatch(outs)
		return
	}

	if !forced && match.Name == d.lastApplied {
		d.log.Debugw("matched profile already applied", "profile", match.Name)
		return
	}
	if !forced && match.Name == d.prevApplied && match.Name != d.lastApplied &&
		time.Since(d.lastApplyAt) < d.Delays.LoopWindow {
		d.log.Infow("suppressing oscillating re-apply", "profile", match.Name)
		return
	}

	p := match.Clone()
	if d.cfg.ClamshellMode {
		d.preprocessClamshell(p, outs)
	}
	if !ensureSafe(p, outs) {
		d.log.Errorw("refusing apply that would disable every connected output", "profile", p.Name)
		return
	}

	// snapshot before the write; the apply may disconnect workspaces
	workspaces, err := s.client.GetWorkspaces()
	if err != nil {
		d.log.Warnw("query workspaces", "error", err)
	}

	d.log.Infow("applying profile", "profile", p.Name, "forced", forced)
	if err := s.client.Apply(p, d.applyOptions()); err != nil {
		d.log.Errorw("apply profile", "profile", p.Name, "error", err)
		return
	}

	d.prevApplied = d.lastApplied
	d.lastApplied = match.Name
	d.lastApplyAt = time.Now()

	if d.cfg.MigrateWorkspaces && !s.client.MigratesWorkspaces() {
		s.migrateOrphans(p, workspaces)
	}
}

// preprocessClamshell adjusts a cloned profile for the lid state: internal
// panels are first re-enabled (undoing stale manual disables), then turned
// off again unless the lid is known open, and only when an external output
// the profile enables is actually connected.
func (d *Daemon) preprocessClamshell(p *output.Profile, outs []output.Output) {
	for i := range p.Outputs {
		if p.Outputs[i].IsInternal() {
			p.Outputs[i].Enabled = true
		}
	}

	if d.lidState == lid.StateOpen {
		return
	}

	connected := make(map[string]struct{}, len(outs))
	for i := range outs {
		if outs[i].Description != "" {
			connected[outs[i].Description] = struct{}{}
		}
	}

	externalPresent := false
	for i := range p.Outputs {
		o := &p.Outputs[i]
		if o.IsInternal() || !o.Enabled {
			continue
		}
		if _, ok := connected[o.Description]; ok {
			externalPresent = true
			break
		}
	}
	if !externalPresent {
		return
	}

	for i := range p.Outputs {
		if p.Outputs[i].IsInternal() {
			p.Outputs[i].Enabled = false
		}
	}
}

// ensureSafe guarantees at least one connected output stays enabled,
// force-enabling a connected internal (or failing that, any connected
// output). Reports false when the profile covers nothing that is connected.
func ensureSafe(p *output.Profile, outs []output.Output) bool {
	connected := make(map[string]struct{}, len(outs))
	for i := range outs {
		if outs[i].Description != "" {
			connected[outs[i].Description] = struct{}{}
		}
		connected["name:"+outs[i].Name] = struct{}{}
	}

	isConnected := func(o *output.Output) bool {
		if _, ok := connected[o.Description]; ok && o.Description != "" {
			return true
		}
		_, ok := connected["name:"+o.Name]
		return ok
	}

	for i := range p.Outputs {
		if p.Outputs[i].Enabled && isConnected(&p.Outputs[i]) {
			return true
		}
	}

	for i := range p.Outputs {
		if p.Outputs[i].IsInternal() && isConnected(&p.Outputs[i]) {
			p.Outputs[i].Enabled = true
			return true
		}
	}
	for i := range p.Outputs {
		if isConnected(&p.Outputs[i]) {
			p.Outputs[i].Enabled = true
			return true
		}
	}
	return false
}

// handleNoMatch covers the fallbacks when no stored profile fits: undo a
// stale clamshell disable after a lid open, or rescue a session where every
// connected output ended up disabled.
func (s *session) handleNoMatch(outs []output.Output) {
	d := s.d

	if d.cfg.ClamshellMode && d.lidState == lid.StateOpen {
		p := liveProfile(outs)
		if output.UndoClamshell(p.Outputs) {
			d.log.Infow("no profile matched, re-enabling internal outputs after lid open")
			if err := s.client.Apply(p, d.applyOptions()); err != nil {
				d.log.Errorw("apply undo-clamshell profile", "error", err)
			}
			return
		}
	}

	allDisabled := len(outs) > 0
	hasInternal := false
	for i := range outs {
		if outs[i].Enabled {
			allDisabled = false
		}
		if outs[i].IsInternal() {
			hasInternal = true
		}
	}
	if allDisabled && hasInternal {
		p := liveProfile(outs)
		for i := range p.Outputs {
			if p.Outputs[i].IsInternal() {
				p.Outputs[i].Enabled = true
			}
		}
		d.log.Warnw("every connected output is disabled, force-enabling internal outputs")
		if err := s.client.Apply(p, d.applyOptions()); err != nil {
			d.log.Errorw("apply emergency profile", "error", err)
		}
		return
	}

	d.log.Infow("no matching profile")
}

// liveProfile wraps the current output state in an anonymous profile.
func liveProfile(outs []output.Output) *output.Profile {
	p := &output.Profile{Outputs: outs}
	return p.Clone()
}

func (s *session) migrateOrphans(p *output.Profile, workspaces []compositor.Workspace) {
	enabled := make(map[string]struct{})
	primary := ""
	for i := range p.Outputs {
		if !p.Outputs[i].Enabled {
			continue
		}
		if primary == "" {
			primary = p.Outputs[i].Name
		}
		enabled[p.Outputs[i].Name] = struct{}{}
	}
	if primary == "" {
		return
	}

	migrated := 0
	for _, ws := range workspaces {
		if ws.Output == "" {
			continue
		}
		if _, ok := enabled[ws.Output]; ok {
			continue
		}
		if err := s.client.MoveWorkspace(ws.Name, primary); err != nil {
			s.d.log.Warnw("migrate workspace", "workspace", ws.Name, "error", err)
			continue
		}
		migrated++
	}
	if migrated > 0 {
		s.d.log.Infow("migrated orphaned workspaces", "count", migrated, "target", primary)
	}
}

// handleLid runs on the loop goroutine. It arms the lid timer with the
// action for the new state; the timer slot is separate from the hotplug
// debounce so the two never cancel each other.
func (s *session) handleLid(state lid.State) {
	d := s.d
	d.lidState = state
	d.log.Infow("lid state changed", "state", state.String())

	switch state {
	case lid.StateClosed:
		s.lidAction = s.lidClosed
		s.lidTimer.Reset(d.Delays.LidSettle)
	case lid.StateOpen:
		s.lidAction = func() { s.lidOpened(true) }
		s.lidTimer.Reset(d.Delays.LidSettle)
	}
}

// lidClosed snapshots the pre-close layout and disables internal panels,
// but only when an enabled external output is present.
func (s *session) lidClosed() {
	d := s.d

	outs, err := s.client.GetOutputs()
	if err != nil {
		d.log.Errorw("query outputs on lid close", "error", err)
		return
	}
	d.preClose = liveProfile(outs)

	p := liveProfile(outs)
	if !output.ApplyClamshell(p.Outputs) {
		d.log.Infow("lid closed with no enabled external output, keeping panel on")
		return
	}

	d.log.Infow("lid closed, disabling internal outputs")
	if err := s.client.Apply(p, d.applyOptions()); err != nil {
		d.log.Errorw("apply clamshell profile", "error", err)
	}
}

// lidOpened re-enables internal panels from the best state available: the
// last applied stored profile, the pre-close snapshot, or live state. One
// delayed retry covers panels that enumerate late.
func (s *session) lidOpened(retry bool) {
	d := s.d

	var p *output.Profile
	if d.lastApplied != "" {
		if stored, err := d.store.Load(d.lastApplied); err == nil {
			p = stored.Clone()
		}
	}
	if p == nil && d.preClose != nil {
		p = d.preClose.Clone()
	}
	if p == nil {
		outs, err := s.client.GetOutputs()
		if err != nil {
			d.log.Errorw("query outputs on lid open", "error", err)
			return
		}
		p = liveProfile(outs)
	}

	output.UndoClamshell(p.Outputs)

	d.log.Infow("lid opened, restoring internal outputs", "profile", p.Name)
	if err := s.client.Apply(p, d.applyOptions()); err != nil {
		d.log.Errorw("apply lid-open profile", "error", err)
	}

	if retry {
		s.lidAction = func() { s.lidOpened(false) }
		s.lidTimer.Reset(d.Delays.LidRetry)
	}
}
