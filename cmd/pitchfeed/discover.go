package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lstanic/pitchfeed/internal/discovery"
	"github.com/lstanic/pitchfeed/internal/store"
	"github.com/lstanic/pitchfeed/pkg/types"
)

const defaultMaxPages = 200

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Enumerate a league season's matches inside a date window",
	Long: `Discover walks the league's fixture pages backwards from the most recent
and records every match dated inside the window. Each page is checkpointed,
so an interrupted walk resumes from its cursor with --resume instead of
restarting.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().String("country", "", "country as the source spells it (e.g. england)")
	discoverCmd.Flags().String("league", "", "league as the source spells it (e.g. premier-league)")
	discoverCmd.Flags().String("season", "", "season label (e.g. 23/24)")
	discoverCmd.Flags().String("from", "", "window start date (YYYY-MM-DD)")
	discoverCmd.Flags().String("to", "", "window end date (YYYY-MM-DD)")
	discoverCmd.Flags().String("resume", "", "resume an interrupted discovery run by id")
	discoverCmd.Flags().Int("max-pages", defaultMaxPages, "fixture page budget per invocation, 0 for unbounded")
	addSessionFlags(discoverCmd)

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	var run types.Run
	if resumeID, _ := cmd.Flags().GetString("resume"); resumeID != "" {
		run, err = st.GetRun(ctx, resumeID)
		if err != nil {
			return err
		}
	} else {
		criteria, err := criteriaFromFlags(cmd)
		if err != nil {
			return err
		}
		run = types.Run{
			ID:        uuid.New().String(),
			Criteria:  criteria,
			Status:    types.RunDiscovering,
			CreatedAt: time.Now().UTC(),
		}
		if err := st.CreateRun(ctx, run); err != nil {
			return err
		}
		fmt.Printf("Run %s\n", run.ID)
	}

	session, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer session.Close()

	maxPages, _ := cmd.Flags().GetInt("max-pages")
	d := discovery.New(session, st, types.DiscoveryConfig{MaxPages: maxPages}, logger)

	summary, err := d.Discover(ctx, run, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d fixture group(s) or link(s) skipped as unreadable", summary.Skipped)
	}
	return nil
}

func criteriaFromFlags(cmd *cobra.Command) (types.Criteria, error) {
	country, _ := cmd.Flags().GetString("country")
	league, _ := cmd.Flags().GetString("league")
	season, _ := cmd.Flags().GetString("season")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	criteria := types.Criteria{Country: country, League: league, Season: season}
	var err error
	if from != "" {
		if criteria.StartDate, err = time.Parse(types.DateFormat, from); err != nil {
			return types.Criteria{}, fmt.Errorf("parsing --from: %w", err)
		}
	}
	if to != "" {
		if criteria.EndDate, err = time.Parse(types.DateFormat, to); err != nil {
			return types.Criteria{}, fmt.Errorf("parsing --to: %w", err)
		}
	}
	if err := criteria.Validate(); err != nil {
		return types.Criteria{}, err
	}
	return criteria, nil
}

// loadRun resolves the --run flag against the store, shared by the
// post-discovery stages.
func loadRun(cmd *cobra.Command, st *store.Store) (types.Run, error) {
	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		return types.Run{}, fmt.Errorf("provide a run id with --run (see 'pitchfeed report' for known runs)")
	}
	return st.GetRun(cmd.Context(), runID)
}
