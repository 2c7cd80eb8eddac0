package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/drift"
)

var errDrift = errors.New("installed files differ from RECORD")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <name-version.dist-info>",
		Short: "Compare an installed distribution with its RECORD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			report, err := drift.DetectDrift(cfg.SchemePaths(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), drift.FormatDriftReport(report))
			if report.Drifted() {
				return errDrift
			}
			return nil
		},
	}
}
