//go:build mage

// Pipeline targets run the built CLI stage by stage. Selection comes
// from the environment: PITCHFEED_COUNTRY, PITCHFEED_LEAGUE,
// PITCHFEED_SEASON, PITCHFEED_FROM, PITCHFEED_TO for discovery, then
// PITCHFEED_RUN for every later stage.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Discover enumerates the configured league season's matches.
func Discover() error {
	return stage("discover",
		"--country", os.Getenv("PITCHFEED_COUNTRY"),
		"--league", os.Getenv("PITCHFEED_LEAGUE"),
		"--season", os.Getenv("PITCHFEED_SEASON"),
		"--from", os.Getenv("PITCHFEED_FROM"),
		"--to", os.Getenv("PITCHFEED_TO"),
	)
}

// Extract scrapes the discovered matches of $PITCHFEED_RUN.
func Extract() error {
	run, err := envRun()
	if err != nil {
		return err
	}
	return stage("extract", "--run", run)
}

// Dataset aggregates the extracted batches of $PITCHFEED_RUN.
func Dataset() error {
	run, err := envRun()
	if err != nil {
		return err
	}
	return stage("dataset", "--run", run)
}

// Normalize produces the feature table of $PITCHFEED_RUN.
func Normalize() error {
	run, err := envRun()
	if err != nil {
		return err
	}
	return stage("normalize", "--run", run)
}

// Teamform derives trailing team form for $PITCHFEED_RUN.
func Teamform() error {
	run, err := envRun()
	if err != nil {
		return err
	}
	return stage("teamform", "--run", run)
}

// Report prints the run summary of $PITCHFEED_RUN.
func Report() error {
	run, err := envRun()
	if err != nil {
		return err
	}
	return stage("report", "--run", run)
}

func envRun() (string, error) {
	run := os.Getenv("PITCHFEED_RUN")
	if run == "" {
		return "", fmt.Errorf("set PITCHFEED_RUN to the run id (see bin/%s report)", binName)
	}
	return run, nil
}

func stage(args ...string) error {
	mg.Deps(Build)
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
