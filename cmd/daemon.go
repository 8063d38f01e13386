package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/daemon"
	"codeberg.org/lkiss/wlplug/pkg/hotplug"
	"codeberg.org/lkiss/wlplug/pkg/lid"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch for monitor hotplugs and re-apply the best matching profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func runDaemon() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(store, cfg, log)
	d.Connect = func() (compositor.Client, error) { return connectClient(log) }
	d.Hotplug = func(ctx context.Context, events chan<- compositor.Event) error {
		monitor, err := hotplug.NewMonitor()
		if err != nil {
			return fmt.Errorf("open udev monitor: %w", err)
		}
		return monitor.Watch(ctx, events)
	}

	if cfg.ClamshellMode {
		watcher, err := lid.NewWatcher()
		if err != nil {
			log.Warnw("lid monitoring unavailable, clamshell mode degraded", "error", err)
		} else {
			defer watcher.Close()
			d.Lid = watcher
		}
	}

	log.Info("started wlplug daemon")

	errChan := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := d.Run(ctx)
		if err != nil {
			errChan <- fmt.Errorf("daemon: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := systemdNotifyLoop(ctx)
		if err != nil {
			errChan <- fmt.Errorf("systemd notify: %w", err)
		}
	}()

	err = <-errChan
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		wg.Wait()
		return nil
	case err != nil:
		return err
	}

	return nil
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	_, _ = sddaemon.SdNotify(false, "STATUS=Watching for monitor hotplugs")

	// notify watchdog
	t, err := sddaemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	// if watchdog is not enabled, we don't need to notify it
	if t == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := sddaemon.SdNotify(false, sddaemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}
