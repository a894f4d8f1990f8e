package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediakit/internal/history"
)

type historyEntry struct {
	ID         string          `json:"id"`
	Tool       string          `json:"tool"`
	Target     string          `json:"target"`
	Output     string          `json:"output"`
	Status     string          `json:"status"`
	Items      int             `json:"items"`
	Options    json.RawMessage `json:"options,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Seconds    float64         `json:"duration_seconds"`
}

func newHistoryEntry(run history.Run) historyEntry {
	entry := historyEntry{
		ID:        run.ID,
		Tool:      run.Tool,
		Target:    run.Target,
		Output:    run.Output,
		Status:    string(run.Status),
		Items:     run.Items,
		Error:     run.ErrorMessage,
		StartedAt: run.StartedAt,
		Seconds:   run.Duration().Seconds(),
	}
	if run.OptionsJSON != "" && json.Valid([]byte(run.OptionsJSON)) {
		entry.Options = json.RawMessage(run.OptionsJSON)
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		entry.FinishedAt = &finished
	}
	return entry
}

func newHistoryCommand(ctx *CommandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.OpenHistory()
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), ctx.Tool, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				entries := make([]historyEntry, 0, len(runs))
				for _, run := range runs {
					entries = append(entries, newHistoryEntry(run))
				}
				return WriteJSON(out, entries)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(runs, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")

	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete finished runs from history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.OpenHistory()
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context(), ctx.Tool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s finished %s run(s)\n", humanize.Comma(removed), ctx.Tool)
			return nil
		},
	}
}

func renderHistoryTable(runs []history.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.IsFinished() {
			duration = run.Duration().Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			string(run.Status),
			strconv.Itoa(run.Items),
			duration,
			run.Target,
		})
	}
	return renderTable(
		[]string{"ID", "Started", "Status", "Items", "Duration", "Target"},
		rows,
		3, 4,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
