package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meetnotes/internal/api"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Control microphone recording",
	}

	recordCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start recording the configured microphone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.StartRecording(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording to %s\n", resp.Path)
				return nil
			})
		},
	})

	recordCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop recording and queue the meeting for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.StopRecording(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Saved %s\n", resp.Path)
				if resp.JobID != "" {
					fmt.Fprintf(out, "Queued job %s\n", resp.JobID)
				}
				return nil
			})
		},
	})

	return recordCmd
}
