// Package niri talks to niri over its newline-delimited JSON socket.
// Replies come wrapped in an Ok/Err envelope; niri picks up config changes
// by watching the files, so Apply only writes them out.
package niri

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/paths"
)

type Client struct {
	socketPath string
	log        *zap.SugaredLogger
}

// NewClient locates the niri IPC socket.
func NewClient(log *zap.SugaredLogger) (*Client, error) {
	if sock := os.Getenv("NIRI_SOCKET"); sock != "" {
		return &Client{socketPath: sock, log: log}, nil
	}

	sock, err := compositor.SocketFromRuntimeDir(xdg.RuntimeDir, compositor.KindNiri)
	if err != nil {
		return nil, err
	}
	return &Client{socketPath: sock, log: log}, nil
}

// NewClientAt uses an explicit socket path. Used in tests.
func NewClientAt(socketPath string, log *zap.SugaredLogger) *Client {
	return &Client{socketPath: socketPath, log: log}
}

func (c *Client) Name() string             { return compositor.KindNiri }
func (c *Client) MigratesWorkspaces() bool { return true }

// request sends one JSON message and unwraps the Ok envelope. Replies carry
// a single-key object naming the response type; the value is returned.
func (c *Client) request(msg string) (json.RawMessage, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(msg + "\n")); err != nil {
		return nil, fmt.Errorf("write to niri socket: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	var envelope map[string]json.RawMessage
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("unmarshal niri response: %w", err)
	}

	if errMsg, ok := envelope["Err"]; ok {
		return nil, fmt.Errorf("niri: %s", errMsg)
	}
	ok, found := envelope["Ok"]
	if !found {
		return nil, fmt.Errorf("niri: response has neither Ok nor Err")
	}

	var inner map[string]json.RawMessage
	if err := json.Unmarshal(ok, &inner); err == nil && len(inner) == 1 {
		for _, v := range inner {
			return v, nil
		}
	}
	return ok, nil
}

func (c *Client) rawOutputs() (map[string]niriOutput, error) {
	resp, err := c.request(`"Outputs"`)
	if err != nil {
		return nil, err
	}

	var outputs map[string]niriOutput
	if err := json.Unmarshal(resp, &outputs); err != nil {
		return nil, fmt.Errorf("unmarshal outputs: %w", err)
	}
	return outputs, nil
}

func (c *Client) GetOutputs() ([]output.Output, error) {
	raw, err := c.rawOutputs()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	outs := make([]output.Output, 0, len(names))
	for _, name := range names {
		o := raw[name]
		outs = append(outs, o.toOutput(name))
	}
	return outs, nil
}

func (c *Client) GetWorkspaces() ([]compositor.Workspace, error) {
	resp, err := c.request(`"Workspaces"`)
	if err != nil {
		return nil, err
	}

	var workspaces []niriWorkspace
	if err := json.Unmarshal(resp, &workspaces); err != nil {
		return nil, fmt.Errorf("unmarshal workspaces: %w", err)
	}

	out := make([]compositor.Workspace, 0, len(workspaces))
	for _, w := range workspaces {
		name := w.Name
		if name == "" {
			name = fmt.Sprintf("%d", w.Idx)
		}
		out = append(out, compositor.Workspace{ID: int(w.ID), Name: name, Output: w.Output})
	}
	return out, nil
}

// MoveWorkspace moves a workspace to another output. The reference is the
// workspace name, or its index for unnamed workspaces (GetWorkspaces hands
// out the index as the name for those). The daemon does not use this (niri
// migrates workspaces itself), it exists for the CLI.
func (c *Client) MoveWorkspace(workspace, target string) error {
	var reference map[string]any
	if idx, err := strconv.Atoi(workspace); err == nil {
		reference = map[string]any{"Index": idx}
	} else {
		reference = map[string]any{"Name": workspace}
	}

	action := map[string]any{
		"Action": map[string]any{
			"MoveWorkspaceToOutput": map[string]any{
				"output":    target,
				"reference": reference,
			},
		},
	}
	msg, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	_, err = c.request(string(msg))
	return err
}

// Apply writes the KDL layout and lets niri's config watcher pick it up.
func (c *Client) Apply(profile *output.Profile, opts compositor.ApplyOptions) error {
	var niriIDs map[string]string
	if opts.UseDescription {
		// map normalized descriptions back to the identifiers niri expects,
		// e.g. "AOC 2757 ABC" -> "PNP(AOC) 2757 ABC"
		if raw, err := c.rawOutputs(); err == nil {
			niriIDs = make(map[string]string, len(raw))
			for _, o := range raw {
				native := o.nativeDescription()
				if native == "" {
					continue
				}
				niriIDs[output.NormalizeDescription(native)] = native
			}
		}
	}

	if err := compositor.WriteConfigs(c.log, profile, compositor.KindNiri, niriIDs, opts); err != nil {
		return err
	}

	configKDL := filepath.Join(paths.NiriConfigDir(), "config.kdl")
	if _, err := EnsureInclude(configKDL, "wlplug-monitors.kdl"); err != nil {
		return fmt.Errorf("ensure include: %w", err)
	}
	return nil
}

// StreamEvents infers hotplugs from the event stream. Niri has no output
// event, so it watches WorkspacesChanged and reports only when the set of
// outputs referenced by workspaces changes. The first event establishes the
// baseline.
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

	if _, err := conn.Write([]byte("\"EventStream\"\n")); err != nil {
		return fmt.Errorf("write to niri socket: %w", err)
	}

	var known map[string]struct{}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event struct {
			WorkspacesChanged *struct {
				Workspaces []niriWorkspace `json:"workspaces"`
			} `json:"WorkspacesChanged"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.WorkspacesChanged == nil {
			continue
		}

		outputs := make(map[string]struct{})
		for _, w := range event.WorkspacesChanged.Workspaces {
			if w.Output != "" {
				outputs[w.Output] = struct{}{}
			}
		}

		if known == nil {
			known = outputs
			continue
		}
		if setsEqual(known, outputs) {
			continue
		}
		known = outputs

		select {
		case events <- compositor.Event{Kind: "changed", Source: compositor.SourceHeuristic}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return nil
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
