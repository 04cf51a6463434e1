package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/daemon"
	"github.com/hawkmon/hawkmon/internal/logger"
)

func init() { //nolint: gochecknoinits
	unblockCmd.Flags().UintSliceVar(&unblockUserIDFlags, "userids", nil, "User IDs to unblock")

	if err := unblockCmd.MarkFlagRequired("userids"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(unblockCmd)
}

var (
	unblockUserIDFlags []uint

	unblockCmd = &cobra.Command{
		Use:   "unblock",
		Short: "Reset the failed-login counters of locked accounts",
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}

			if err = logger.Init(cfg.Log); err != nil {
				panic(err)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			d := daemon.New(&cfg)

			unblockUserIDs := make([]uint64, len(unblockUserIDFlags))
			for i, id := range unblockUserIDFlags {
				unblockUserIDs[i] = uint64(id)
			}

			if err := d.Auth().Unblock(unblockUserIDs); err != nil {
				return err
			}

			fmt.Printf("unblocked %d user(s)\n", len(unblockUserIDs))

			return nil
		},
	}
)
