package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/lkiss/wlplug/pkg/compositor/hyprland"
	"codeberg.org/lkiss/wlplug/pkg/output"
)

var saveCmd = &cobra.Command{
	Use:   "save <profile>",
	Short: "Save the current monitor layout as a named profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSave(args[0])
	},
}

func runSave(name string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	client, err := connectClient(log)
	if err != nil {
		return err
	}

	outs, err := client.GetOutputs()
	if err != nil {
		return fmt.Errorf("query outputs: %w", err)
	}
	if len(outs) == 0 {
		return fmt.Errorf("no outputs reported, refusing to save an empty profile")
	}

	profile := &output.Profile{Name: name, Outputs: outs}

	// hyprland is the only backend exposing workspace rules over IPC
	if hypr, ok := client.(*hyprland.Client); ok {
		rules, err := hypr.GetWorkspaceRules(outs)
		if err != nil {
			log.Warnw("query workspace rules", "error", err)
		} else {
			profile.WorkspaceRules = rules
		}
	}

	if err := store.Save(profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	log.Infow("saved profile", "profile", name, "outputs", len(outs),
		"workspace_rules", len(profile.WorkspaceRules))
	return nil
}
