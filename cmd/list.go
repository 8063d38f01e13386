package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func runList() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	profiles, err := store.LoadAll()
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	for _, p := range profiles {
		enabled := 0
		for i := range p.Outputs {
			if p.Outputs[i].Enabled {
				enabled++
			}
		}
		fmt.Printf("%s\t%d output(s), %d enabled\n", p.Name, len(p.Outputs), enabled)
	}
	return nil
}
