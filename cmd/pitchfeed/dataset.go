package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lstanic/pitchfeed/internal/aggregate"
	"github.com/lstanic/pitchfeed/internal/store"
	"github.com/lstanic/pitchfeed/pkg/types"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Aggregate a run's extracted batches into the raw dataset",
	Long: `Dataset concatenates the run's extracted batches in discovery order,
validates record keys, collapses same-match duplicates, and writes the raw
dataset CSV. Normalization reads this artifact, so re-running it never
requires re-scraping.`,
	RunE: runDataset,
}

func init() {
	datasetCmd.Flags().String("run", "", "run id to aggregate (required)")

	rootCmd.AddCommand(datasetCmd)
}

func runDataset(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := loadRun(cmd, st)
	if err != nil {
		return err
	}

	ds, err := aggregateRun(cmd, st, run.ID)
	if err != nil {
		return err
	}

	path, err := st.ExportRawCSV(ds)
	if err != nil {
		return err
	}
	if err := st.UpdateRunStatus(ctx, run.ID, types.RunAggregated); err != nil {
		return err
	}

	fmt.Printf("Raw dataset: %d records from run %s\n", len(ds.Records), run.ID)
	fmt.Printf("Exported %s\n", path)
	return nil
}

// aggregateRun rebuilds the validated, deduplicated raw dataset from
// the run's persisted batches. The normalize and teamform stages use
// the same path so every consumer sees identical records.
func aggregateRun(cmd *cobra.Command, st *store.Store, runID string) (types.Dataset, error) {
	batches, err := st.Batches(cmd.Context(), runID)
	if err != nil {
		return types.Dataset{}, err
	}
	return aggregate.Aggregate(runID, batches)
}
