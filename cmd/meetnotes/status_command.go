package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meetnotes/internal/api"
	"meetnotes/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, recording, and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := api.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return err
			}

			status, err := client.Status(cmd.Context())
			if err != nil && !errors.Is(err, api.ErrDaemonUnavailable) {
				return wrapDaemonError(err)
			}
			if status == nil {
				status, err = offlineStatus(cmd, ctx)
				if err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd, status)
			}
			printStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// offlineStatus reads job counts straight from the database when no daemon
// answers.
func offlineStatus(cmd *cobra.Command, ctx *commandContext) (*api.DaemonStatus, error) {
	status := &api.DaemonStatus{}
	err := ctx.withStore(func(store *jobs.Store) error {
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		status.DatabasePath = store.Path()
		status.Workflow.JobCounts = api.MergeJobCounts(stats)
		status.Workflow.ActiveJobs = []string{}
		return nil
	})
	return status, err
}

func printStatus(cmd *cobra.Command, status *api.DaemonStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
	}
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Inbox watcher", statusInfo, yesNo(status.InboxWatched), colorize))
		if status.Recording.Active {
			fmt.Fprintln(out, renderStatusLine("Recording", statusWarn, status.Recording.Path, colorize))
		} else {
			fmt.Fprintln(out, renderStatusLine("Recording", statusInfo, "idle", colorize))
		}
		if len(status.Workflow.ActiveJobs) > 0 {
			fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, strings.Join(status.Workflow.ActiveJobs, ", "), colorize))
		}
		if status.Workflow.LastError != "" {
			fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.Workflow.LastError, colorize))
		}
	}
	if status.DatabasePath != "" {
		fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSectionHeader("Jobs", colorize))
	fmt.Fprintln(out, renderTable(
		[]string{"Status", "Count"},
		buildCountRows(status.Workflow.JobCounts),
		[]columnAlignment{alignLeft, alignRight},
	))
}
