package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <profile>",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(args[0])
	},
}

func runDelete(name string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	if err := store.Delete(name); err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}

	log.Infow("deleted profile", "profile", name)
	return nil
}
