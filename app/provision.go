package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/daemon"
	"github.com/hawkmon/hawkmon/internal/logger"
)

func init() { //nolint: gochecknoinits
	provisionCmd.Flags().UintSliceVar(&provisionUserIDFlags, "userids", nil, "User IDs to re-sync")

	if err := provisionCmd.MarkFlagRequired("userids"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(provisionCmd)
}

var (
	provisionUserIDFlags []uint

	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Re-sync provisioned users from their directory",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}

			if err = logger.Init(cfg.Log); err != nil {
				panic(err)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := daemon.New(&cfg)

			provisionUserIDs := make([]uint64, len(provisionUserIDFlags))
			for i, id := range provisionUserIDFlags {
				provisionUserIDs[i] = uint64(id)
			}

			synced, err := d.Auth().Provision(context.Background(), provisionUserIDs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "synced %d of %d user(s)\n", len(synced), len(provisionUserIDs))

			return nil
		},
	}
)
