package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lstanic/pitchfeed/internal/report"
	"github.com/lstanic/pitchfeed/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a run, or list all runs",
	Long: `Report renders a markdown summary of one run: the selection, how many
matches were attempted, extracted, and failed, and the feature table row
count. Without --run it lists the known runs instead.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("run", "", "run id to summarize")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs yet.")
			return nil
		}
		for _, run := range runs {
			fmt.Printf("%s  %s/%s %s  %s to %s  [%s]\n",
				run.ID, run.Criteria.Country, run.Criteria.League, run.Criteria.Season,
				run.Criteria.StartDate.Format(types.DateFormat),
				run.Criteria.EndDate.Format(types.DateFormat),
				run.Status)
		}
		return nil
	}

	summary, err := st.Summary(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Print(report.Render(summary))
	return nil
}
