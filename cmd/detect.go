package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/profilematch"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show which saved profile matches the current monitor layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect()
	},
}

func runDetect() error {
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

	profiles, err := store.LoadAll()
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	fingerprint := output.Fingerprint(outs)
	fmt.Printf("compositor: %s\n", client.Name())
	for _, desc := range fingerprint {
		fmt.Printf("connected:  %s\n", desc)
	}

	// exact mode: the profile must describe the layout as it is right now
	match := profilematch.FindBestMatch(profiles, fingerprint, outs, profilematch.Options{Exact: true})
	if match == nil {
		fmt.Println("profile:    (none)")
		return nil
	}
	fmt.Printf("profile:    %s\n", match.Name)
	return nil
}
