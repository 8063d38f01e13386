package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/config"
	"codeberg.org/lkiss/wlplug/pkg/lid"
	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/profilestore/memory"
)

type fakeClient struct {
	mu         sync.Mutex
	outs       []output.Output
	workspaces []compositor.Workspace
	applied    []*output.Profile
	moved      [][2]string
	events     chan compositor.Event
	migrates   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{events: make(chan compositor.Event, 16)}
}

func (f *fakeClient) Name() string             { return "fake" }
func (f *fakeClient) MigratesWorkspaces() bool { return f.migrates }

func (f *fakeClient) setOutputs(outs ...output.Output) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outs = outs
}

func (f *fakeClient) GetOutputs() ([]output.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outs := make([]output.Output, len(f.outs))
	copy(outs, f.outs)
	return outs, nil
}

func (f *fakeClient) GetWorkspaces() ([]compositor.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]compositor.Workspace(nil), f.workspaces...), nil
}

func (f *fakeClient) MoveWorkspace(workspace, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moved = append(f.moved, [2]string{workspace, target})
	return nil
}

func (f *fakeClient) Apply(p *output.Profile, opts compositor.ApplyOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, p.Clone())
	return nil
}

func (f *fakeClient) StreamEvents(ctx context.Context, events chan<- compositor.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-f.events:
			if !ok {
				return nil
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (f *fakeClient) appliedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.applied))
	for i, p := range f.applied {
		names[i] = p.Name
	}
	return names
}

func (f *fakeClient) lastApplied() *output.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.applied) == 0 {
		return nil
	}
	return f.applied[len(f.applied)-1]
}

func testOutput(name, desc string, enabled bool) output.Output {
	o := output.New()
	o.Name = name
	o.Description = desc
	o.Enabled = enabled
	o.PositionMode = output.PositionExplicit
	return o
}

func testDelays() Delays {
	return Delays{
		Native:        10 * time.Millisecond,
		UdevSettle:    20 * time.Millisecond,
		HeuristicBase: 20 * time.Millisecond,
		Retry:         10 * time.Millisecond,
		LidSettle:     10 * time.Millisecond,
		LidRetry:      20 * time.Millisecond,
		LoopWindow:    time.Second,
	}
}

func testSettings() *config.Settings {
	return &config.Settings{MigrateWorkspaces: true}
}

// startDaemon runs the listen loop against the fake client and returns a
// cancel function.
func startDaemon(t *testing.T, d *Daemon, client *fakeClient) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.listen(ctx, client)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitApplies(t *testing.T, client *fakeClient, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(client.appliedNames()) >= n
	}, 2*time.Second, 5*time.Millisecond)
}

func saveProfile(t *testing.T, store *memory.ProfileStore, name string, outs ...output.Output) {
	t.Helper()
	require.NoError(t, store.Save(&output.Profile{Name: name, Outputs: outs}))
}

func TestForcedBaselineApply(t *testing.T) {
	store := memory.NewProfileStore()
	saveProfile(t, store, "desk", testOutput("eDP-1", "panel", true))

	client := newFakeClient()
	client.setOutputs(testOutput("eDP-1", "panel", true))

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()
	startDaemon(t, d, client)

	waitApplies(t, client, 1)
	assert.Equal(t, []string{"desk"}, client.appliedNames())
}

func TestDebounceCoalescesBursts(t *testing.T) {
	store := memory.NewProfileStore()
	saveProfile(t, store, "desk", testOutput("eDP-1", "panel", true))
	saveProfile(t, store, "dock",
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	)

	client := newFakeClient()
	client.setOutputs(testOutput("eDP-1", "panel", true))

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()
	startDaemon(t, d, client)
	waitApplies(t, client, 1)

	// a hotplug burst while the monitor set changes: one apply
	client.setOutputs(
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	)
	for i := 0; i < 5; i++ {
		client.events <- compositor.Event{Kind: "added", Output: "DP-1", Source: compositor.SourceNative}
	}

	waitApplies(t, client, 2)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"desk", "dock"}, client.appliedNames())
}

func TestNoopSkipWhenProfileUnchanged(t *testing.T) {
	store := memory.NewProfileStore()
	saveProfile(t, store, "desk", testOutput("eDP-1", "panel", true))

	client := newFakeClient()
	client.setOutputs(testOutput("eDP-1", "panel", true))

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()
	startDaemon(t, d, client)
	waitApplies(t, client, 1)

	// same monitors, same match: nothing to do
	client.events <- compositor.Event{Kind: "changed", Source: compositor.SourceUdev}
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"desk"}, client.appliedNames())
}

func TestLoopSuppression(t *testing.T) {
	store := memory.NewProfileStore()
	saveProfile(t, store, "desk", testOutput("eDP-1", "panel", true))
	saveProfile(t, store, "dock",
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	)

	client := newFakeClient()
	client.setOutputs(testOutput("eDP-1", "panel", true))

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()
	startDaemon(t, d, client)
	waitApplies(t, client, 1)

	client.setOutputs(
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	)
	client.events <- compositor.Event{Kind: "added", Source: compositor.SourceNative}
	waitApplies(t, client, 2)

	// the apply itself made the fingerprint flip back: A-B-A within the
	// window is the reload echo, not a real hotplug
	client.setOutputs(testOutput("eDP-1", "panel", true))
	client.events <- compositor.Event{Kind: "removed", Source: compositor.SourceNative}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"desk", "dock"}, client.appliedNames())
}

func TestForcedApplyBypassesLoopSuppression(t *testing.T) {
	store := memory.NewProfileStore()
	saveProfile(t, store, "desk", testOutput("eDP-1", "panel", true))

	client := newFakeClient()
	client.setOutputs(testOutput("eDP-1", "panel", true))

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()

	// state left behind by a desk -> dock apply sequence just before a
	// reconnect: the baseline apply of desk must not be suppressed
	d.prevApplied = "desk"
	d.lastApplied = "dock"
	d.lastApplyAt = time.Now()

	s := &session{d: d, client: client, debounce: &timerSlot{}, lidTimer: &timerSlot{}}
	s.applyBest(false)
	assert.Empty(t, client.appliedNames(), "unforced re-apply inside the window is suppressed")

	s.applyBest(true)
	assert.Equal(t, []string{"desk"}, client.appliedNames())
}

func TestSafetyForcesInternalOn(t *testing.T) {
	store := memory.NewProfileStore()
	saveProfile(t, store, "broken",
		testOutput("eDP-1", "panel", false),
		testOutput("DP-1", "ext", false),
	)

	client := newFakeClient()
	client.setOutputs(
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	)

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()
	startDaemon(t, d, client)
	waitApplies(t, client, 1)

	p := client.lastApplied()
	require.NotNil(t, p)
	assert.True(t, p.Outputs[0].Enabled, "internal output force-enabled")
	assert.False(t, p.Outputs[1].Enabled)
}

func TestMigratesOrphanedWorkspaces(t *testing.T) {
	store := memory.NewProfileStore()
	saveProfile(t, store, "solo", testOutput("eDP-1", "panel", true))

	client := newFakeClient()
	client.setOutputs(testOutput("eDP-1", "panel", true))
	client.workspaces = []compositor.Workspace{
		{ID: 1, Name: "1", Output: "eDP-1"},
		{ID: 2, Name: "web", Output: "DP-1"},
	}

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()
	startDaemon(t, d, client)
	waitApplies(t, client, 1)

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.moved) == 1
	}, 2*time.Second, 5*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, [2]string{"web", "eDP-1"}, client.moved[0])
}

func TestEmergencyRecoveryWhenAllDisabled(t *testing.T) {
	store := memory.NewProfileStore()
	// nothing in the store matches

	client := newFakeClient()
	client.setOutputs(
		testOutput("eDP-1", "panel", false),
		testOutput("DP-1", "ext", false),
	)

	d := New(store, testSettings(), zap.NewNop().Sugar())
	d.Delays = testDelays()
	startDaemon(t, d, client)
	waitApplies(t, client, 1)

	p := client.lastApplied()
	require.NotNil(t, p)
	assert.True(t, p.Outputs[0].Enabled, "internal re-enabled")
	assert.False(t, p.Outputs[1].Enabled, "external left alone")
}

func TestClamshellPreprocess(t *testing.T) {
	cfg := testSettings()
	cfg.ClamshellMode = true
	d := New(memory.NewProfileStore(), cfg, zap.NewNop().Sugar())

	profile := &output.Profile{Name: "dock", Outputs: []output.Output{
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	}}
	connected := []output.Output{
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	}

	t.Run("lid unknown disables internal with external present", func(t *testing.T) {
		p := profile.Clone()
		d.lidState = lid.StateUnknown
		d.preprocessClamshell(p, connected)
		assert.False(t, p.Outputs[0].Enabled)
		assert.True(t, p.Outputs[1].Enabled)
	})

	t.Run("lid open keeps internal on", func(t *testing.T) {
		p := profile.Clone()
		d.lidState = lid.StateOpen
		d.preprocessClamshell(p, connected)
		assert.True(t, p.Outputs[0].Enabled)
	})

	t.Run("no connected external keeps internal on", func(t *testing.T) {
		p := profile.Clone()
		d.lidState = lid.StateClosed
		d.preprocessClamshell(p, []output.Output{testOutput("eDP-1", "panel", true)})
		assert.True(t, p.Outputs[0].Enabled)
	})

	t.Run("stale manual disable is undone", func(t *testing.T) {
		p := profile.Clone()
		p.Outputs[0].Enabled = false
		d.lidState = lid.StateOpen
		d.preprocessClamshell(p, connected)
		assert.True(t, p.Outputs[0].Enabled)
	})
}

func TestLidCloseAndReopen(t *testing.T) {
	cfg := testSettings()
	cfg.ClamshellMode = true

	store := memory.NewProfileStore()
	client := newFakeClient()
	client.setOutputs(
		testOutput("eDP-1", "panel", true),
		testOutput("DP-1", "ext", true),
	)

	d := New(store, cfg, zap.NewNop().Sugar())
	d.Delays = testDelays()
	s := &session{d: d, client: client, debounce: &timerSlot{}, lidTimer: &timerSlot{}}
	defer s.lidTimer.Stop()

	s.handleLid(lid.StateClosed)
	require.NotNil(t, s.lidAction)
	s.lidAction()

	p := client.lastApplied()
	require.NotNil(t, p)
	assert.False(t, p.Outputs[0].Enabled, "internal disabled on close")
	assert.True(t, p.Outputs[1].Enabled)
	require.NotNil(t, d.preClose, "pre-close snapshot captured")
	assert.True(t, d.preClose.Outputs[0].Enabled)

	s.handleLid(lid.StateOpen)
	require.NotNil(t, s.lidAction)
	s.lidAction()

	p = client.lastApplied()
	assert.True(t, p.Outputs[0].Enabled, "internal restored from snapshot on open")
}

func TestLidCloseWithoutExternalKeepsPanel(t *testing.T) {
	cfg := testSettings()
	cfg.ClamshellMode = true

	client := newFakeClient()
	client.setOutputs(testOutput("eDP-1", "panel", true))

	d := New(memory.NewProfileStore(), cfg, zap.NewNop().Sugar())
	d.Delays = testDelays()
	s := &session{d: d, client: client, debounce: &timerSlot{}, lidTimer: &timerSlot{}}
	defer s.lidTimer.Stop()

	s.handleLid(lid.StateClosed)
	s.lidAction()

	assert.Empty(t, client.appliedNames(), "no apply when closing without external")
}
