// Package hotplug watches kernel uevents for DRM connector changes. It is
// the fallback signal for compositors that do not report output hotplugs
// over their own IPC.
package hotplug

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
)

// udev broadcasts on netlink group 2, the kernel itself on group 1. We
// listen to the kernel group so this works without udevd too.
const kernelGroup = 1

// Monitor owns a NETLINK_KOBJECT_UEVENT socket.
type Monitor struct {
	fd int
}

// NewMonitor opens and binds the uevent socket.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("open netlink socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: kernelGroup,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind netlink socket: %w", err)
	}

	return &Monitor{fd: fd}, nil
}

// Watch delivers an event for every DRM change uevent until ctx is
// cancelled. It closes the socket on return.
func (m *Monitor) Watch(ctx context.Context, events chan<- compositor.Event) error {
	// closing the fd from another goroutine unblocks the Recvfrom below
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			unix.Close(m.fd)
		case <-done:
			unix.Close(m.fd)
		}
	}()

	buf := make([]byte, 64*1024)
	for {
		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("read uevent: %w", err)
		}

		if !isDRMChange(buf[:n]) {
			continue
		}

		select {
		case events <- compositor.Event{Kind: "changed", Source: compositor.SourceUdev}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// isDRMChange parses a uevent buffer (NUL-separated KEY=value pairs after
// the summary line) and reports whether it is a change event on the drm
// subsystem.
func isDRMChange(buf []byte) bool {
	var action, subsystem string
	for _, field := range strings.Split(string(buf), "\x00") {
		if v, ok := strings.CutPrefix(field, "ACTION="); ok {
			action = v
		}
		if v, ok := strings.CutPrefix(field, "SUBSYSTEM="); ok {
			subsystem = v
		}
	}
	return subsystem == "drm" && action == "change"
}
