package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lstanic/pitchfeed/internal/teamform"
	"github.com/lstanic/pitchfeed/pkg/types"
)

const (
	defaultFormWindow = 5
	defaultFormDecay  = 0.35
)

var teamformCmd = &cobra.Command{
	Use:   "teamform",
	Short: "Derive trailing team form from a run's raw dataset",
	Long: `Teamform folds the raw dataset into per-team match results and shot
volumes, then derives each team's trailing form under exponential
time-decay weighting. A team's first match of the run has no history and
emits no row.`,
	RunE: runTeamform,
}

func init() {
	teamformCmd.Flags().String("run", "", "run id to derive form for (required)")
	teamformCmd.Flags().Int("window", defaultFormWindow, "trailing matches per form row")
	teamformCmd.Flags().Float64("decay", defaultFormDecay, "exponential decay rate per match back in time")

	rootCmd.AddCommand(teamformCmd)
}

func runTeamform(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := loadRun(cmd, st)
	if err != nil {
		return err
	}

	ds, err := aggregateRun(cmd, st, run.ID)
	if err != nil {
		return err
	}

	window, _ := cmd.Flags().GetInt("window")
	decay, _ := cmd.Flags().GetFloat64("decay")
	rows := teamform.Derive(ds, types.TeamFormConfig{Window: window, Decay: decay})
	if len(rows) == 0 {
		fmt.Println("No team has prior matches in this run; no form rows.")
		return nil
	}

	path, err := teamform.Export(st, run.ID, rows)
	if err != nil {
		return err
	}
	fmt.Printf("Team form: %d rows\n", len(rows))
	fmt.Printf("Exported %s\n", path)
	return nil
}
