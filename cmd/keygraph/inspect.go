package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectList bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [checkpoint]",
	Short: "Print frame, detection and matrix counts of a checkpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectList, "list", false, "list stored checkpoints instead")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kg, err := setup(ctx, cfg)
	if err != nil {
		return err
	}

	var v any
	if inspectList {
		names, err := kg.Checkpoints(ctx)
		if err != nil {
			return err
		}
		v = names
	} else {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		if v, err = kg.Inspect(ctx, name); err != nil {
			return err
		}
	}

	out, err := kg.Encode(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
