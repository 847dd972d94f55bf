package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewandler/mbus-go/internal/shop"
)

func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <simulation-file>",
		Short: "Check a simulation file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := shop.LoadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sim)
			}

			svc := sim.Services
			_, err = fmt.Fprintf(out, "ok: %d ticks, %d shoe types, %d sellers, %d factories, %d customers, manager: %t\n",
				svc.Time.Duration, len(sim.InitialStorage), svc.Sellers, svc.Factories, len(svc.Customers), svc.Manager != nil)
			return err
		},
	}
}
