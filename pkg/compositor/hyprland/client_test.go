package hyprland

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/output"
)

// fakeCommandSocket answers every connection on .socket.sock with a canned
// response keyed by the received command.
func fakeCommandSocket(t *testing.T, dir string, responses map[string]string) {
	t.Helper()
	ln, err := net.Listen("unix", filepath.Join(dir, ".socket.sock"))
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				buf := make([]byte, 4096)
				n, err := conn.Read(buf)
				if err != nil {
					return
				}
				resp, ok := responses[string(buf[:n])]
				if !ok {
					resp = "unknown request"
				}
				io.WriteString(conn, resp)
			}(conn)
		}
	}()
}

const monitorsJSON = `[
  {
    "id": 0, "name": "eDP-1",
    "description": "BOE 0x0BCA Unknown",
    "make": "BOE", "model": "0x0BCA", "serial": "",
    "width": 1920, "height": 1080, "refreshRate": 60.00100,
    "x": 0, "y": 0, "scale": 1.0, "transform": 0,
    "disabled": false, "vrr": false,
    "availableModes": ["1920x1080@60.00Hz"]
  },
  {
    "id": 1, "name": "DP-1",
    "description": "AOC 2757 ABC",
    "make": "AOC", "model": "2757", "serial": "ABC",
    "width": 2560, "height": 1440, "refreshRate": 143.91199,
    "x": -1, "y": -1, "scale": 1.25, "transform": 1,
    "disabled": true, "vrr": 1,
    "availableModes": []
  }
]`

func TestGetOutputs(t *testing.T) {
	dir := t.TempDir()
	fakeCommandSocket(t, dir, map[string]string{"j/monitors all": monitorsJSON})

	client := NewClientAt(dir, zap.NewNop().Sugar())
	outs, err := client.GetOutputs()
	require.NoError(t, err)
	require.Len(t, outs, 2)

	panel := outs[0]
	assert.Equal(t, "eDP-1", panel.Name)
	assert.Equal(t, "BOE 0x0BCA", panel.Description, "trailing Unknown stripped")
	assert.Equal(t, 60.001, panel.RefreshRate)
	assert.True(t, panel.Enabled)
	assert.Equal(t, output.VRROff, panel.VRR)
	assert.Equal(t, output.PositionExplicit, panel.PositionMode)

	ext := outs[1]
	assert.False(t, ext.Enabled)
	assert.Equal(t, 143.912, ext.RefreshRate)
	assert.Equal(t, output.VRROn, ext.VRR)
	assert.Equal(t, output.TransformRotate90, ext.Transform)
	// disabled monitors report x=-1,y=-1 and fall back to auto placement
	assert.Equal(t, output.PositionAuto, ext.PositionMode)
	assert.Equal(t, 0, ext.X)
}

func TestGetWorkspaces(t *testing.T) {
	dir := t.TempDir()
	fakeCommandSocket(t, dir, map[string]string{
		"j/workspaces": `[{"id": 1, "name": "1", "monitor": "eDP-1"}, {"id": 3, "name": "web", "monitor": "DP-1"}]`,
	})

	client := NewClientAt(dir, zap.NewNop().Sugar())
	ws, err := client.GetWorkspaces()
	require.NoError(t, err)
	assert.Equal(t, []compositor.Workspace{
		{ID: 1, Name: "1", Output: "eDP-1"},
		{ID: 3, Name: "web", Output: "DP-1"},
	}, ws)
}

func TestGetWorkspaceRules(t *testing.T) {
	dir := t.TempDir()
	fakeCommandSocket(t, dir, map[string]string{
		"j/workspacerules": `[
			{"workspaceString": "2", "monitor": "desc:AOC 2757 ABC", "default": true, "gapsOut": [12, 12, 12, 12]},
			{"workspaceString": "special:scratch", "monitor": "eDP-1"}
		]`,
	})

	ext := output.New()
	ext.Name = "DP-1"
	ext.Description = "AOC 2757 ABC"

	client := NewClientAt(dir, zap.NewNop().Sugar())
	rules, err := client.GetWorkspaceRules([]output.Output{ext})
	require.NoError(t, err)
	require.Len(t, rules, 1, "special workspaces are skipped")

	assert.Equal(t, "2", rules[0].Workspace)
	assert.Equal(t, "DP-1", rules[0].Output, "desc: reference resolved")
	assert.True(t, rules[0].Default)
	assert.Equal(t, 12, rules[0].GapsOut)
	assert.Equal(t, -1, rules[0].Rounding, "absent keys stay unset")
}

func TestMoveWorkspace(t *testing.T) {
	dir := t.TempDir()
	fakeCommandSocket(t, dir, map[string]string{
		"dispatch moveworkspacetomonitor web DP-1": "ok",
		"dispatch moveworkspacetomonitor bad DP-1": "Invalid dispatch",
	})

	client := NewClientAt(dir, zap.NewNop().Sugar())
	assert.NoError(t, client.MoveWorkspace("web", "DP-1"))
	assert.Error(t, client.MoveWorkspace("bad", "DP-1"))
}

func TestStreamEvents(t *testing.T) {
	dir := t.TempDir()
	ln, err := net.Listen("unix", filepath.Join(dir, ".socket2.sock"))
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.WriteString(conn, "workspace>>2\n")
		io.WriteString(conn, "monitoradded>>DP-1\n")
		io.WriteString(conn, "monitorremovedv2>>1,DP-1,AOC 2757 ABC\n")
		io.WriteString(conn, "activewindow>>foot,~\n")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events := make(chan compositor.Event, 4)
	client := NewClientAt(dir, zap.NewNop().Sugar())
	go client.StreamEvents(ctx, events)

	ev := <-events
	assert.Equal(t, compositor.Event{Kind: "added", Output: "DP-1", Source: compositor.SourceNative}, ev)

	ev = <-events
	assert.Equal(t, compositor.Event{Kind: "removed", Output: "DP-1", Source: compositor.SourceNative}, ev)

	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
