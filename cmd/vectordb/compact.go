package main

import (
	"github.com/spf13/cobra"

	"github.com/jandrana/vectordb/config"
)

func newCompactCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Rewrite the action log to the minimal sequence for the current state",
		Long: "Replays the action log, then rewrites it as one create action per live " +
			"entity. Run while the server is stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Logging)

			store, err := openStore(cfg, logger, false)
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Compact()
		},
	}
}
