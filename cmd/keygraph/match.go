package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hupe1980/keygraph/graph"
	"github.com/hupe1980/keygraph/graphdb"
	"github.com/hupe1980/keygraph/matcher"
)

var (
	matchSQLite      string
	matchMaxDistance float32
	matchPolicy      string
)

var matchCmd = &cobra.Command{
	Use:   "match [checkpoint]",
	Short: "Build the correspondence graph of a checkpoint",
	Long: `Build the correspondence graph of a checkpoint (CURRENT when omitted) and
print its summary. With --sqlite the graph is also exported to a SQLite file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchSQLite, "sqlite", "", "export the graph to this SQLite file")
	matchCmd.Flags().Float32Var(&matchMaxDistance, "max-distance", matcher.DefaultMaxDistance, "largest accepted match distance (overrides config)")
	matchCmd.Flags().StringVar(&matchPolicy, "policy", "", "match policy: backward or forward (overrides config)")
	rootCmd.AddCommand(matchCmd)
}

// matchResult is printed by the match command.
type matchResult struct {
	Checkpoint string        `json:"checkpoint"`
	Summary    graph.Summary `json:"summary"`
	Merged     int           `json:"merged"`
	Unmatched  int           `json:"unmatched"`
	ElapsedMS  int64         `json:"elapsed_ms"`
	Export     *exportResult `json:"export,omitempty"`
}

type exportResult struct {
	Path         string `json:"path"`
	Run          string `json:"run"`
	Frames       int    `json:"frames"`
	Landmarks    int    `json:"landmarks"`
	Observations int    `json:"observations"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-distance") {
		cfg.Match.MaxDistance = matchMaxDistance
	}
	if cmd.Flags().Changed("policy") {
		cfg.Match.Policy = matchPolicy
	}
	if err := cfg.Validate(); err != nil {
		return configError("%w", err)
	}
	kg, err := setup(ctx, cfg)
	if err != nil {
		return err
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	name, g, stats, err := kg.Build(ctx, name)
	if err != nil {
		return err
	}

	res := matchResult{
		Checkpoint: name,
		Summary:    g.Summary(),
		Merged:     stats.Merged,
		Unmatched:  stats.Unmatched,
		ElapsedMS:  stats.Elapsed.Milliseconds(),
	}

	if matchSQLite != "" {
		db, err := graphdb.Open(matchSQLite)
		if err != nil {
			return err
		}
		defer db.Close()

		run := graphdb.Run{ID: uuid.NewString(), Checkpoint: name}
		counts, err := db.Export(ctx, run, g)
		if err != nil {
			return err
		}
		kg.Logger().WithRun(run.ID).InfoContext(ctx, "graph exported", "path", matchSQLite)
		res.Export = &exportResult{
			Path:         matchSQLite,
			Run:          run.ID,
			Frames:       counts.Frames,
			Landmarks:    counts.Landmarks,
			Observations: counts.Observations,
		}
	}

	out, err := kg.Encode(res)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
