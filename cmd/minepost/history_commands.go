package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"minepost/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previous runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []*history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderRunTable(runs []*history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ShortID(),
			formatAge(run.StartedAt),
			string(run.Status),
			filepath.Base(run.InputPath),
			formatCount(run.PassingLines),
			formatCount(run.KeptLines),
			formatCount(run.Files),
			formatRatio(run.MeanRatio),
			formatDuration(run.Duration()),
		})
	}
	return renderTable(
		[]string{"ID", "Started", "Status", "Input", "Passing", "Kept", "Files", "Mean", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

type runDetail struct {
	Run   *history.Run   `json:"run"`
	Files []history.File `json:"files"`
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var outliersOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its per-file retention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}
			files, err := store.Files(cmd.Context(), run.ID, outliersOnly)
			if err != nil {
				return err
			}
			if files == nil {
				files = []history.File{}
			}

			if jsonOutput {
				return writeJSON(cmd, runDetail{Run: run, Files: files})
			}
			out := cmd.OutOrStdout()
			renderRunDetail(cmd, run, files, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&outliersOnly, "outliers-only", false, "Only list files flagged as low-retention outliers")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderRunDetail(cmd *cobra.Command, run *history.Run, files []history.File, colorize bool) {
	out := cmd.OutOrStdout()
	writeLines(out, renderSectionHeader("Run "+run.ID, colorize)...)

	statusKindValue := statusOK
	statusMessage := "completed"
	if run.Status == history.StatusFailed {
		statusKindValue = statusError
		statusMessage = run.ErrorMessage
	}
	writeLines(out,
		renderStatusLine("Status", statusKindValue, statusMessage, colorize),
		renderField("Started", formatTimestamp(run.StartedAt)),
		renderField("Took", formatDuration(run.Duration())),
		renderField("Input", run.InputPath),
	)
	if run.OutputPath != "" {
		writeLines(out, renderField("Output", fmt.Sprintf("%s (%s)", run.OutputPath, formatBytes(run.OutputBytes))))
	}
	writeLines(out,
		renderField("Filter", fmt.Sprintf("score > %g, audio > %g ms", run.MinScore, run.MinAudioLength)),
		renderField("Dedup", fmt.Sprintf("%s, %s > %g", run.Strategy, run.OverlapMethod, run.MaxOverlap)),
		renderField("Lines", fmt.Sprintf("%s read, %s passing filters, %s kept",
			formatCount(run.TotalLines), formatCount(run.PassingLines), formatCount(run.KeptLines))),
		renderField("Kept audio", formatHours(run.KeptAudioHours)),
		renderField("Retention", fmt.Sprintf("mean %s, stddev %s, threshold %s",
			formatRatio(run.MeanRatio), formatRatio(run.StdDevRatio), formatRatio(run.OutlierThreshold))),
	)

	if len(files) == 0 {
		return
	}
	rows := make([][]string, 0, len(files))
	for _, file := range files {
		flag := ""
		if file.Outlier {
			flag = "low"
		}
		rows = append(rows, []string{file.Path, formatCount(file.KeptLines), formatCount(file.StartingLines), formatRatio(file.Ratio), flag})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Path", "Kept", "Starting", "Ratio", "Outlier"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <run-id>",
		Short: "Delete a run from the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}
			if _, err := store.Remove(cmd.Context(), run.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed run %s\n", run.ID)
			return nil
		},
	}
}
