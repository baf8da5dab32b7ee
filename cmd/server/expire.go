package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oversight/internal/ports"
	"oversight/internal/workers/expiry"
)

func newExpireCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Run one expiry sweep now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer e.Close()
			_, conv := buildServices(e.store, ports.NopNotifier{}, e.log)
			listed, err := expiry.New(e.store.Expiry, conv, e.cfg.ExpiryBatch, 1, e.log).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d conventions past their end date swept\n", listed)
			return err
		},
	}
}
