package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"meetnotes/internal/api"
	"meetnotes/internal/jobs"
)

func buildJobRows(list []api.Job) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			job.Label,
			formatStatusLabel(job.Status),
			strconv.Itoa(job.Attempts),
			formatDisplayTime(job.CreatedAt),
			truncate(job.Error, 48),
		})
	}
	return rows
}

func buildCountRows(counts map[string]int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, status := range jobs.AllStatuses() {
		rows = append(rows, []string{formatStatusLabel(string(status)), strconv.Itoa(counts[string(status)])})
	}
	return rows
}

func printJobDetail(w io.Writer, job api.Job) {
	fmt.Fprintf(w, "ID:          %s\n", job.ID)
	fmt.Fprintf(w, "Label:       %s\n", job.Label)
	fmt.Fprintf(w, "Status:      %s\n", formatStatusLabel(job.Status))
	if job.Stage != "" {
		fmt.Fprintf(w, "Stage:       %s\n", job.Stage)
	}
	fmt.Fprintf(w, "Attempts:    %d\n", job.Attempts)
	fmt.Fprintf(w, "Audio:       %s\n", job.AudioPath)
	if job.TranscriptPath != "" {
		fmt.Fprintf(w, "Transcript:  %s\n", job.TranscriptPath)
	}
	fmt.Fprintf(w, "Created:     %s\n", formatDisplayTime(job.CreatedAt))
	fmt.Fprintf(w, "Updated:     %s\n", formatDisplayTime(job.UpdatedAt))
	if job.Error != "" {
		fmt.Fprintf(w, "Error:       %s\n", job.Error)
	}
	if job.Summary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Summary:")
		for _, line := range strings.Split(strings.TrimRight(job.Summary, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

func formatDisplayTime(value string) string {
	t := api.ParseTime(value)
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func parseStatusFilters(values []string) ([]jobs.Status, error) {
	var statuses []jobs.Status
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, err := jobs.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}
