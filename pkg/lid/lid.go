// Package lid watches laptop lid state through UPower on the system D-Bus.
package lid

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	upowerDest = "org.freedesktop.UPower"
	upowerPath = dbus.ObjectPath("/org/freedesktop/UPower")
)

// State is the lid position as far as UPower knows it.
type State int

const (
	// StateUnknown means there is no lid or UPower is unavailable.
	StateUnknown State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Watcher subscribes to UPower lid property changes.
type Watcher struct {
	conn *dbus.Conn
}

// NewWatcher connects to the system bus. Returns an error when D-Bus or
// UPower is unavailable; the daemon then runs without lid handling.
func NewWatcher() (*Watcher, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &Watcher{conn: conn}, nil
}

func (w *Watcher) Close() error {
	return w.conn.Close()
}

// Current reads the present lid state.
func (w *Watcher) Current() (State, error) {
	obj := w.conn.Object(upowerDest, upowerPath)

	present, err := obj.GetProperty(upowerDest + ".LidIsPresent")
	if err != nil {
		return StateUnknown, fmt.Errorf("get LidIsPresent: %w", err)
	}
	if ok, _ := present.Value().(bool); !ok {
		return StateUnknown, nil
	}

	closed, err := obj.GetProperty(upowerDest + ".LidIsClosed")
	if err != nil {
		return StateUnknown, fmt.Errorf("get LidIsClosed: %w", err)
	}
	if isClosed, _ := closed.Value().(bool); isClosed {
		return StateClosed, nil
	}
	return StateOpen, nil
}

// Watch calls onChange with every lid state transition until ctx is
// cancelled. The callback runs on the watcher goroutine.
func (w *Watcher) Watch(ctx context.Context, onChange func(State)) error {
	if err := w.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(upowerPath),
	); err != nil {
		return fmt.Errorf("add match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	w.conn.Signal(signals)
	defer w.conn.RemoveSignal(signals)

	last, err := w.Current()
	if err != nil {
		return err
	}
	if last == StateUnknown {
		// no lid on this machine, nothing to watch
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("dbus signal channel closed")
			}
			if len(sig.Body) < 2 {
				continue
			}

			changed, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				continue
			}
			closedVar, ok := changed["LidIsClosed"]
			if !ok {
				continue
			}

			state := StateOpen
			if isClosed, _ := closedVar.Value().(bool); isClosed {
				state = StateClosed
			}
			if state == last {
				continue
			}
			last = state
			onChange(state)
		}
	}
}
