package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meetnotes/internal/api"
	"meetnotes/internal/jobs"
	"meetnotes/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, tools, credentials, and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			if !offline {
				results = append(results, preflight.CheckSMTP(cmd.Context(), cfg.Email.Host, cfg.Email.Port))
			}
			results = append(results, databaseCheck(cmd, ctx))

			fmt.Fprintln(out, renderSectionHeader("Checks", colorize))
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				} else if strings.Contains(r.Detail, "optional") {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
			fmt.Fprintln(out, daemonLine(cmd, cfg.Paths.APIBind, cfg.Paths.APIToken, colorize))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network checks")
	return cmd
}

func databaseCheck(cmd *cobra.Command, ctx *commandContext) preflight.Result {
	result := preflight.Result{Name: "Job database"}
	err := ctx.withStore(func(store *jobs.Store) error {
		health, err := store.CheckHealth(cmd.Context())
		if err != nil {
			return err
		}
		switch {
		case len(health.MissingColumns) > 0:
			result.Detail = "missing columns: " + strings.Join(health.MissingColumns, ", ")
		case !health.IntegrityCheck:
			result.Detail = "integrity check failed"
		default:
			result.Passed = true
			result.Detail = fmt.Sprintf("%s (schema v%d, %d jobs)", health.DBPath, health.SchemaVersion, health.TotalJobs)
		}
		return nil
	})
	if err != nil {
		result.Detail = err.Error()
	}
	return result
}

// daemonLine reports reachability only; a stopped daemon is not a failure.
func daemonLine(cmd *cobra.Command, bind, token string, colorize bool) string {
	client, err := api.NewClient(bind, token)
	if err != nil {
		return renderStatusLine("API", statusError, err.Error(), colorize)
	}
	status, err := client.Status(cmd.Context())
	switch {
	case errors.Is(err, api.ErrDaemonUnavailable):
		return renderStatusLine("API", statusWarn, "not running at "+bind, colorize)
	case err != nil:
		return renderStatusLine("API", statusError, err.Error(), colorize)
	default:
		return renderStatusLine("API", statusOK, fmt.Sprintf("running at %s (pid %d)", bind, status.PID), colorize)
	}
}
