package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lstanic/pitchfeed/internal/extract"
	"github.com/lstanic/pitchfeed/pkg/types"
)

const (
	defaultMatchDelay = 2 * time.Second
	defaultSessions   = 1
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Scrape the discovered matches of a run",
	Long: `Extract reads every pending match page of a run into raw per-player
records, one whole batch per match. A match that cannot be read after a
retry is marked failed and skipped; the run continues. With --sessions
above 1 the matches split into disjoint partitions, one independent
scraping session each.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("run", "", "run id to extract (required)")
	extractCmd.Flags().Duration("match-delay", 0, "pause between consecutive matches (default 2s)")
	extractCmd.Flags().Int("sessions", defaultSessions, "independent scraping sessions")
	extractCmd.Flags().Bool("retry-failed", false, "also retry matches that failed in an earlier pass")
	addSessionFlags(extractCmd)

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	refs, err := st.PendingRefs(ctx, run.ID)
	if err != nil {
		return err
	}
	if retry, _ := cmd.Flags().GetBool("retry-failed"); retry {
		failed, err := st.RetryableRefs(ctx, run.ID)
		if err != nil {
			return err
		}
		refs = append(refs, failed...)
	}
	if len(refs) == 0 {
		fmt.Println("Nothing to extract.")
		return nil
	}

	matchDelay, _ := cmd.Flags().GetDuration("match-delay")
	if matchDelay == 0 {
		matchDelay = defaultMatchDelay
	}
	sessions, _ := cmd.Flags().GetInt("sessions")
	if sessions < 1 {
		sessions = defaultSessions
	}
	cfg := types.ExtractionConfig{MatchDelay: matchDelay, Sessions: sessions}

	// One session per partition; each is exclusively owned by its
	// extractor and closed here when the stage ends.
	extractors := make([]*extract.Extractor, 0, sessions)
	for i := 0; i < sessions; i++ {
		session, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer session.Close()
		extractors = append(extractors, extract.New(session, st, cfg, logger))
	}

	result, err := extract.ExtractParallel(ctx, run.ID, refs, extractors, os.Stdout)
	if err != nil {
		return err
	}

	if result.Extracted > 0 {
		if err := st.UpdateRunStatus(ctx, run.ID, types.RunExtracted); err != nil {
			return err
		}
	}
	if result.HasFailures() {
		return fmt.Errorf("%d match(es) failed extraction", result.Failed)
	}
	return nil
}
