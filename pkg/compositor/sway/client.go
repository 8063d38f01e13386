// Package sway talks to Sway over the binary i3-ipc protocol: a 6-byte
// magic followed by little-endian payload length and message type.
package sway

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/output"
)

const (
	ipcRunCommand    = 0
	ipcGetWorkspaces = 1
	ipcSubscribe     = 2
	ipcGetOutputs    = 3

	// events carry the high bit; output events are type 1
	eventOutput = 0x80000001
)

var ipcMagic = []byte("i3-ipc")

type Client struct {
	socketPath string
	log        *zap.SugaredLogger
}

// NewClient locates the Sway IPC socket.
func NewClient(log *zap.SugaredLogger) (*Client, error) {
	if sock := os.Getenv("SWAYSOCK"); sock != "" {
		return &Client{socketPath: sock, log: log}, nil
	}

	sock, err := compositor.SocketFromRuntimeDir(xdg.RuntimeDir, compositor.KindSway)
	if err != nil {
		return nil, err
	}
	return &Client{socketPath: sock, log: log}, nil
}

// NewClientAt uses an explicit socket path. Used in tests.
func NewClientAt(socketPath string, log *zap.SugaredLogger) *Client {
	return &Client{socketPath: socketPath, log: log}
}

func (c *Client) Name() string             { return compositor.KindSway }
func (c *Client) MigratesWorkspaces() bool { return false }

func writeMessage(w io.Writer, msgType uint32, payload []byte) error {
	header := make([]byte, len(ipcMagic)+8)
	copy(header, ipcMagic)
	binary.LittleEndian.PutUint32(header[6:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[10:], msgType)

	if _, err := w.Write(append(header, payload...)); err != nil {
		return fmt.Errorf("write to sway socket: %w", err)
	}
	return nil
}

func readMessage(r io.Reader) (msgType uint32, payload []byte, err error) {
	header := make([]byte, len(ipcMagic)+8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read sway header: %w", err)
	}
	if string(header[:6]) != string(ipcMagic) {
		return 0, nil, fmt.Errorf("bad sway ipc magic %q", header[:6])
	}

	length := binary.LittleEndian.Uint32(header[6:])
	msgType = binary.LittleEndian.Uint32(header[10:])

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read sway payload: %w", err)
	}
	return msgType, payload, nil
}

// roundTrip performs one request/response exchange on a fresh connection.
func (c *Client) roundTrip(msgType uint32, payload []byte) ([]byte, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := writeMessage(conn, msgType, payload); err != nil {
		return nil, err
	}

	_, resp, err := readMessage(conn)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetOutputs() ([]output.Output, error) {
	resp, err := c.roundTrip(ipcGetOutputs, nil)
	if err != nil {
		return nil, err
	}

	var swayOutputs []swayOutput
	if err := json.Unmarshal(resp, &swayOutputs); err != nil {
		return nil, fmt.Errorf("unmarshal outputs: %w", err)
	}

	outs := make([]output.Output, 0, len(swayOutputs))
	for i := range swayOutputs {
		outs = append(outs, swayOutputs[i].toOutput())
	}
	return outs, nil
}

func (c *Client) GetWorkspaces() ([]compositor.Workspace, error) {
	resp, err := c.roundTrip(ipcGetWorkspaces, nil)
	if err != nil {
		return nil, err
	}

	var workspaces []swayWorkspace
	if err := json.Unmarshal(resp, &workspaces); err != nil {
		return nil, fmt.Errorf("unmarshal workspaces: %w", err)
	}

	out := make([]compositor.Workspace, 0, len(workspaces))
	for _, w := range workspaces {
		out = append(out, compositor.Workspace{ID: w.Num, Name: w.Name, Output: w.Output})
	}
	return out, nil
}

// runCommand executes a sway command and checks the per-command status
// replies.
func (c *Client) runCommand(cmd string) error {
	resp, err := c.roundTrip(ipcRunCommand, []byte(cmd))
	if err != nil {
		return err
	}

	var results []struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp, &results); err != nil {
		return fmt.Errorf("unmarshal command result: %w", err)
	}
	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("sway command %q: %s", cmd, r.Error)
		}
	}
	return nil
}

func (c *Client) MoveWorkspace(workspace, target string) error {
	return c.runCommand(fmt.Sprintf("[workspace=%s] move workspace to output %s", workspace, target))
}

func (c *Client) Apply(profile *output.Profile, opts compositor.ApplyOptions) error {
	if err := compositor.WriteConfigs(c.log, profile, compositor.KindSway, nil, opts); err != nil {
		return err
	}
	return c.runCommand("reload")
}

// StreamEvents subscribes to output events and forwards hotplugs. The
// "unspecified" change sway emits when we apply our own config is dropped,
// otherwise every apply would trigger another apply.
func (c *Client) StreamEvents(ctx context.Context, events chan<- compositor.Event) error {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	defer conn.Close()

	payload, err := json.Marshal([]string{"output"})
	if err != nil {
		return fmt.Errorf("marshal subscribe payload: %w", err)
	}
	if err := writeMessage(conn, ipcSubscribe, payload); err != nil {
		return err
	}

	// subscribe ACK
	if _, _, err := readMessage(conn); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	for {
		msgType, payload, err := readMessage(conn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if msgType != eventOutput {
			continue
		}

		var event struct {
			Change string `json:"change"`
		}
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}

		var kind string
		switch event.Change {
		case "new":
			kind = "added"
		case "del":
			kind = "removed"
		default:
			continue
		}

		select {
		case events <- compositor.Event{Kind: kind, Source: compositor.SourceNative}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
