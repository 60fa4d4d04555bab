package main

import (
	"github.com/spf13/cobra"
)

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Score the responses file with the quality evaluators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(cmd)
			if err != nil {
				return err
			}
			_, err = p.EvaluateStage(cmd.Context())
			return err
		},
	}
}
