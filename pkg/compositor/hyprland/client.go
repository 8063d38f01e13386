// Package hyprland talks to Hyprland over its two IPC sockets: a
// dial-per-request command socket and a line-based event socket.
package hyprland

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/output"
)

type Client struct {
	runtimeDir string
	log        *zap.SugaredLogger
}

// NewClient locates the Hyprland IPC sockets for the current instance.
func NewClient(log *zap.SugaredLogger) (*Client, error) {
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if signature == "" {
		sock, err := compositor.SocketFromRuntimeDir(xdg.RuntimeDir, compositor.KindHyprland)
		if err != nil {
			return nil, err
		}
		return &Client{runtimeDir: filepath.Dir(sock), log: log}, nil
	}

	return &Client{runtimeDir: filepath.Join(xdg.RuntimeDir, "hypr", signature), log: log}, nil
}

// NewClientAt uses an explicit socket directory. Used in tests.
func NewClientAt(dir string, log *zap.SugaredLogger) *Client {
	return &Client{runtimeDir: dir, log: log}
}

func (c *Client) Name() string             { return compositor.KindHyprland }
func (c *Client) MigratesWorkspaces() bool { return false }

func (c *Client) commandSocket() string { return filepath.Join(c.runtimeDir, ".socket.sock") }
func (c *Client) eventSocket() string   { return filepath.Join(c.runtimeDir, ".socket2.sock") }

// command sends a raw command to the command socket and returns the reply.
func (c *Client) command(cmd string) (string, error) {
	conn, err := net.Dial("unix", c.commandSocket())
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("write to hyprctl socket: %w", err)
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read from hyprctl socket: %w", err)
	}
	return string(resp), nil
}

// commandJSON sends a command with the j/ prefix and decodes the JSON reply
// into out.
func (c *Client) commandJSON(cmd string, out any) error {
	conn, err := net.Dial("unix", c.commandSocket())
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("j/" + cmd)); err != nil {
		return fmt.Errorf("write to hyprctl socket: %w", err)
	}

	dec := json.NewDecoder(conn)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("unmarshal %q response: %w", cmd, err)
	}
	return nil
}

func (c *Client) GetOutputs() ([]output.Output, error) {
	var monitors []hyprMonitor
	if err := c.commandJSON("monitors all", &monitors); err != nil {
		return nil, err
	}

	outs := make([]output.Output, 0, len(monitors))
	for _, m := range monitors {
		outs = append(outs, m.toOutput())
	}
	return outs, nil
}

func (c *Client) GetWorkspaces() ([]compositor.Workspace, error) {
	var workspaces []hyprWorkspace
	if err := c.commandJSON("workspaces", &workspaces); err != nil {
		return nil, err
	}

	out := make([]compositor.Workspace, 0, len(workspaces))
	for _, w := range workspaces {
		out = append(out, compositor.Workspace{ID: w.ID, Name: w.Name, Output: w.Monitor})
	}
	return out, nil
}

// GetWorkspaceRules returns the configured workspace rules, with desc:
// monitor references resolved to connector names via outs.
func (c *Client) GetWorkspaceRules(outs []output.Output) ([]output.WorkspaceRule, error) {
	var entries []hyprWorkspaceRule
	if err := c.commandJSON("workspacerules", &entries); err != nil {
		return nil, err
	}

	descToName := make(map[string]string, len(outs))
	for i := range outs {
		if outs[i].Description != "" {
			descToName[outs[i].Description] = outs[i].Name
		}
	}

	var rules []output.WorkspaceRule
	for _, e := range entries {
		if strings.HasPrefix(e.WorkspaceString, "special:") {
			continue
		}
		rules = append(rules, e.toRule(descToName))
	}
	return rules, nil
}

func (c *Client) MoveWorkspace(workspace, target string) error {
	resp, err := c.command(fmt.Sprintf("dispatch moveworkspacetomonitor %s %s", workspace, target))
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp) != "ok" {
		return fmt.Errorf("hyprctl: %s", resp)
	}
	return nil
}

func (c *Client) Apply(profile *output.Profile, opts compositor.ApplyOptions) error {
	if err := compositor.WriteConfigs(c.log, profile, compositor.KindHyprland, nil, opts); err != nil {
		return err
	}

	resp, err := c.command("reload")
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if strings.TrimSpace(resp) != "ok" {
		return fmt.Errorf("hyprctl reload: %s", resp)
	}
	return nil
}

// ApplyLive pushes the profile's monitor lines as keyword commands in a
// single batch, changing the running config without touching any files.
func (c *Client) ApplyLive(profile *output.Profile) error {
	keywords := profile.HyprlandKeywords()
	if len(keywords) == 0 {
		return nil
	}

	resp, err := c.command("[[BATCH]]" + strings.Join(keywords, ";"))
	if err != nil {
		return fmt.Errorf("batch keywords: %w", err)
	}
	if strings.Contains(resp, "error") {
		return fmt.Errorf("hyprctl batch: %s", resp)
	}
	return nil
}

var monitorEvents = []string{
	"monitoradded>>", "monitorremoved>>",
	"monitoraddedv2>>", "monitorremovedv2>>",
}

// StreamEvents reads the event socket and forwards only monitor hotplug
// events.
func (c *Client) StreamEvents(ctx context.Context, events chan<- compositor.Event) error {
	conn, err := net.Dial("unix", c.eventSocket())
	if err != nil {
		return fmt.Errorf("dial event socket: %w", err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		for _, prefix := range monitorEvents {
			if !strings.HasPrefix(line, prefix) {
				continue
			}

			ev := compositor.Event{Source: compositor.SourceNative}
			if strings.HasPrefix(prefix, "monitoradded") {
				ev.Kind = "added"
			} else {
				ev.Kind = "removed"
			}

			payload := strings.TrimPrefix(line, prefix)
			if strings.HasSuffix(strings.TrimSuffix(prefix, ">>"), "v2") {
				// v2 payload: id,name,description
				fields := strings.SplitN(payload, ",", 3)
				if len(fields) >= 2 {
					ev.Output = fields[1]
				}
			} else {
				ev.Output = payload
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
			break
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event socket: %w", err)
	}
	return nil
}
