package sway

import (
	"context"
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

// fakeServer answers each connection with one canned exchange: it reads a
// message and replies by message type.
func fakeServer(t *testing.T, responses map[uint32]string) *Client {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "sway-ipc.sock")
	ln, err := net.Listen("unix", sock)
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
				msgType, _, err := readMessage(conn)
				if err != nil {
					return
				}
				writeMessage(conn, msgType, []byte(responses[msgType]))
			}(conn)
		}
	}()

	return NewClientAt(sock, zap.NewNop().Sugar())
}

const outputsJSON = `[
  {
    "name": "eDP-1", "make": "BOE", "model": "0x0BCA", "serial": "Unknown",
    "active": true, "scale": 1.0, "transform": "normal",
    "adaptive_sync_status": "disabled",
    "current_mode": {"width": 1920, "height": 1080, "refresh": 60001},
    "modes": [{"width": 1920, "height": 1080, "refresh": 60001}],
    "rect": {"x": 0, "y": 0}
  },
  {
    "name": "DP-1", "make": "AOC", "model": "2757", "serial": "ABC",
    "active": false, "scale": -1, "transform": "270",
    "adaptive_sync_status": "enabled",
    "current_mode": {"width": 2560, "height": 1440, "refresh": 143912},
    "modes": [],
    "rect": {"x": 1920, "y": 0}
  }
]`

func TestGetOutputs(t *testing.T) {
	client := fakeServer(t, map[uint32]string{ipcGetOutputs: outputsJSON})

	outs, err := client.GetOutputs()
	require.NoError(t, err)
	require.Len(t, outs, 2)

	panel := outs[0]
	assert.Equal(t, "eDP-1", panel.Name)
	assert.Equal(t, "BOE 0x0BCA", panel.Description, "reconstructed and Unknown stripped")
	assert.Equal(t, 60.001, panel.RefreshRate, "millihertz converted")
	assert.True(t, panel.Enabled)
	assert.Equal(t, []string{"1920x1080@60.001Hz"}, panel.AvailableModes)

	ext := outs[1]
	assert.False(t, ext.Enabled, "scale -1 marks disabled")
	assert.Equal(t, 1.0, ext.Scale)
	assert.Equal(t, output.PositionAuto, ext.PositionMode)
	// sway's "270" is a clockwise label for wayland's 90 CCW
	assert.Equal(t, output.TransformRotate90, ext.Transform)
	assert.Equal(t, output.VRROn, ext.VRR)
}

func TestGetWorkspaces(t *testing.T) {
	client := fakeServer(t, map[uint32]string{
		ipcGetWorkspaces: `[{"num": 1, "name": "1", "output": "eDP-1"}, {"num": -1, "name": "web", "output": "DP-1"}]`,
	})

	ws, err := client.GetWorkspaces()
	require.NoError(t, err)
	assert.Equal(t, []compositor.Workspace{
		{ID: 1, Name: "1", Output: "eDP-1"},
		{ID: -1, Name: "web", Output: "DP-1"},
	}, ws)
}

func TestRunCommandFailure(t *testing.T) {
	client := fakeServer(t, map[uint32]string{
		ipcRunCommand: `[{"success": false, "error": "Unknown output"}]`,
	})

	err := client.MoveWorkspace("web", "DP-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown output")
}

func TestStreamEvents(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "sway-ipc.sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// subscribe + ACK
		if _, _, err := readMessage(conn); err != nil {
			return
		}
		writeMessage(conn, ipcSubscribe, []byte(`{"success": true}`))

		writeMessage(conn, eventOutput, []byte(`{"change": "unspecified"}`))
		writeMessage(conn, eventOutput, []byte(`{"change": "new"}`))
		writeMessage(conn, eventOutput, []byte(`{"change": "del"}`))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events := make(chan compositor.Event, 4)
	client := NewClientAt(sock, zap.NewNop().Sugar())
	go client.StreamEvents(ctx, events)

	ev := <-events
	assert.Equal(t, "added", ev.Kind, "unspecified change is swallowed")
	assert.Equal(t, compositor.SourceNative, ev.Source)

	ev = <-events
	assert.Equal(t, "removed", ev.Kind)

	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
