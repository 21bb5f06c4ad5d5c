package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/report"
	"github.com/hairizuanbinnoorazman/ui-e2e/storage"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect recorded runs",
	}

	cmd.AddCommand(newReportListCmd())
	cmd.AddCommand(newReportShowCmd())
	cmd.AddCommand(newReportExportCmd())
	cmd.AddCommand(newReportPruneCmd())
	return cmd
}

func newReportListCmd() *cobra.Command {
	var (
		scenarioID string
		status     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
			if err != nil {
				return err
			}
			f := report.Filter{ScenarioID: scenarioID, Status: report.Status(status), Limit: limit}
			if f.Status != "" && !f.Status.IsValid() {
				return fmt.Errorf("%w: %s", report.ErrInvalidStatus, status)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log, cmd.ErrOrStderr())
			rep, closeFn, err := openReporter(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := rep.Runs(cmd.Context(), f)
			if err != nil {
				return err
			}

			return out.print(runs, []string{"ID", "SCENARIO", "STATUS", "STARTED", "DURATION", "ERROR"}, func() [][]string {
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.ID.String(),
						r.ScenarioID,
						string(r.Status),
						formatTime(r.StartedAt),
						formatDuration(r.Duration()),
						truncate(r.Error, 50),
					})
				}
				return rows
			})
		},
	}

	cmd.Flags().StringVar(&scenarioID, "scenario", "", "filter by scenario ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	return cmd
}

func newReportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run with its steps and attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log, cmd.ErrOrStderr())
			rep, closeFn, err := openReporter(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			detail, err := rep.Show(cmd.Context(), id)
			if err != nil {
				return err
			}

			if outputFormat != "table" {
				return out.print(detail, nil, nil)
			}
			printRunDetail(cmd.OutOrStdout(), out, detail)
			return nil
		},
	}
}

func printRunDetail(w io.Writer, out *printer, d *report.RunDetail) {
	fmt.Fprintf(w, "Run:      %s\n", d.Run.ID)
	fmt.Fprintf(w, "Scenario: %s (%s)\n", d.Run.ScenarioID, d.Run.Story)
	fmt.Fprintf(w, "Status:   %s\n", d.Run.Status)
	fmt.Fprintf(w, "Started:  %s\n", formatTime(d.Run.StartedAt))
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(d.Run.Duration()))
	if d.Run.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", d.Run.Error)
	}

	fmt.Fprintln(w)
	stepRows := make([][]string, 0, len(d.Steps))
	for _, s := range d.Steps {
		name := s.Name
		if s.Teardown {
			name += " (teardown)"
		}
		stepRows = append(stepRows, []string{
			fmt.Sprintf("%d", s.StepIndex+1),
			name,
			string(s.Status),
			formatDuration(time.Duration(s.DurationMS) * time.Millisecond),
			truncate(s.Error, 60),
		})
	}
	out.table([]string{"#", "STEP", "STATUS", "DURATION", "ERROR"}, stepRows)

	if len(d.Attachments) == 0 {
		return
	}
	fmt.Fprintln(w)
	attRows := make([][]string, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		attRows = append(attRows, []string{a.StepName, a.Description, string(a.AssetType), a.URL})
	}
	out.table([]string{"STEP", "NAME", "TYPE", "URL"}, attRows)
}

func newReportExportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Copy a run's attachments into a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}
			if dir == "" {
				dir = id.String()
			}
			dst, err := storage.NewLocalStorage(dir)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log, cmd.ErrOrStderr())
			rep, closeFn, err := openReporter(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := rep.Export(cmd.Context(), id, dst)
			if err != nil {
				return err
			}
			out.message("Exported %d attachment(s) to %s", n, dst.BaseDir())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "destination directory (default: the run ID)")
	return cmd
}

func newReportPruneCmd() *cobra.Command {
	var (
		olderThan time.Duration
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs and their artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			before := time.Now().UTC().Add(-olderThan)

			prompt := fmt.Sprintf("Delete finished runs created before %s?", before.Format(time.RFC3339))
			if !confirmAction(cmd.InOrStdin(), cmd.OutOrStdout(), prompt, yes) {
				out.message("Aborted")
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log, cmd.ErrOrStderr())
			rep, closeFn, err := openReporter(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := rep.Prune(cmd.Context(), before)
			out.message("Pruned %d run(s)", n)
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "prune runs older than this")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation")
	return cmd
}

func confirmAction(in io.Reader, w io.Writer, prompt string, skipConfirm bool) bool {
	if skipConfirm {
		return true
	}

	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes"
	}
	return false
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
