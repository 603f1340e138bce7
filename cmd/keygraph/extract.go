package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/keygraph/config"
	"github.com/hupe1980/keygraph/cv"
)

var extractMaxFrames int

var extractCmd = &cobra.Command{
	Use:   "extract <video>",
	Short: "Detect ORB features in a video and save a checkpoint",
	Long: `Detect ORB features in every frame of a video and save the result as a
checkpoint. The checkpoint becomes CURRENT and its name is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&extractMaxFrames, "max-frames", 0, "stop after this many frames (0 = all, overrides config)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-frames") {
		if extractMaxFrames < 0 {
			return configError("--max-frames must be >= 0")
		}
		cfg.Extract.MaxFrames = extractMaxFrames
	}
	kg, err := setup(ctx, cfg)
	if err != nil {
		return err
	}

	src, err := cv.OpenVideo(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	orb := cv.NewORB(orbParams(cfg.Extract.ORB))
	defer orb.Close()

	snap, err := kg.Extract(ctx, src, orb)
	if err != nil {
		return err
	}
	name, err := kg.SaveCheckpoint(ctx, snap)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}

func orbParams(c config.ORBConfig) cv.ORBParams {
	return cv.ORBParams{
		Features:      c.Features,
		ScaleFactor:   c.ScaleFactor,
		Levels:        c.Levels,
		EdgeThreshold: c.EdgeThreshold,
		FirstLevel:    c.FirstLevel,
		WTAK:          c.WTAK,
		HarrisScore:   c.HarrisScore,
		PatchSize:     c.PatchSize,
		FastThreshold: c.FastThreshold,
	}
}
