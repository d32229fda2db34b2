package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lstanic/pitchfeed/internal/normalize"
	"github.com/lstanic/pitchfeed/pkg/types"
)

const defaultMaxMinutes = 90

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Produce the feature table from a run's raw dataset",
	Long: `Normalize transforms the raw dataset into the canonical feature table:
ratio cells decomposed, categories encoded, accumulative stats divided by
minutes played, minutes rescaled into (0, 1], and every row keyed uniquely
by (player, date). A failed pass leaves the raw dataset untouched for
retry.`,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().String("run", "", "run id to normalize (required)")
	normalizeCmd.Flags().Float64("max-minutes", defaultMaxMinutes, "competition's maximum possible minutes (120 for cup ties)")

	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
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

	maxMinutes, _ := cmd.Flags().GetFloat64("max-minutes")
	table, err := normalize.Normalize(ds, types.NormalizationConfig{MaxMinutes: maxMinutes})
	if err != nil {
		return err
	}

	if err := st.SaveFeatureTable(ctx, table); err != nil {
		return err
	}
	path, err := st.ExportFeatureCSV(table)
	if err != nil {
		return err
	}
	if err := st.UpdateRunStatus(ctx, run.ID, types.RunNormalized); err != nil {
		return err
	}

	fmt.Printf("Feature table: %d rows, %d stat columns\n", len(table.Rows), len(table.Columns))
	fmt.Printf("Exported %s\n", path)
	return nil
}
