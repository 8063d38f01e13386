package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/lkiss/wlplug/pkg/compositor/hyprland"
)

var applyLive bool

var applyCmd = &cobra.Command{
	Use:   "apply <profile>",
	Short: "Apply a saved profile to the running compositor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(args[0])
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyLive, "live", false,
		"push the layout as runtime keywords without writing config files (Hyprland only)")
}

func runApply(name string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	profile, err := store.Load(name)
	if err != nil {
		return fmt.Errorf("load profile %q: %w", name, err)
	}

	client, err := connectClient(log)
	if err != nil {
		return err
	}

	if applyLive {
		hypr, ok := client.(*hyprland.Client)
		if !ok {
			return fmt.Errorf("--live is only supported on Hyprland")
		}
		if err := hypr.ApplyLive(profile); err != nil {
			return err
		}
		log.Infow("applied profile live", "profile", name)
		return nil
	}

	if err := client.Apply(profile, applyOptions(cfg)); err != nil {
		return err
	}
	log.Infow("applied profile", "profile", name, "compositor", client.Name())
	return nil
}
