package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hairizuanbinnoorazman/ui-e2e/scenario"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		concurrency int
		noReport    bool
	)

	cmd := &cobra.Command{
		Use:   "run [SCENARIO_ID...]",
		Short: "Run scenarios (all when none are named)",
		Example: `  e2e run
  e2e run LOGIN01 IN_ERR01 --concurrency 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Run.Concurrency = concurrency
			}
			if noReport {
				cfg.Run.Report = false
			}
			ids := args
			if len(ids) == 0 {
				ids = cfg.Run.Scenarios
			}
			return runScenarios(cmd, cfg, ids)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "scenarios to run in parallel")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "do not record runs or artifacts")
	return cmd
}

func runScenarios(cmd *cobra.Command, cfg *Config, ids []string) error {
	out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
	if err != nil {
		return err
	}
	scenarios, err := scenario.Lookup(ids...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg.Log, cmd.ErrOrStderr())

	var reporter scenario.Reporter = scenario.NopReporter{}
	if cfg.Run.Report {
		r, closeFn, err := openReporter(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()
		reporter = r
	}

	browser, err := launchBrowser(ctx, cfg.Browser, log)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Warn(context.Background(), "failed to close browser", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
	}()

	runner := scenario.NewRunner(browser, cfg.Source, reporter, log, cfg.Run.Concurrency,
		scenario.WithExpectTimeout(cfg.Run.ExpectTimeout))
	results, runErr := runner.Run(ctx, scenarios)

	if err := printResults(out, results); err != nil {
		return err
	}
	return runErr
}

type resultView struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	ScenarioID string        `json:"scenario_id" yaml:"scenario_id"`
	Story      string        `json:"story" yaml:"story"`
	Status     string        `json:"status" yaml:"status"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Steps      []stepView    `json:"steps" yaml:"steps"`
}

type stepView struct {
	Name     string `json:"name" yaml:"name"`
	Status   string `json:"status" yaml:"status"`
	Teardown bool   `json:"teardown,omitempty" yaml:"teardown,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

func printResults(out *printer, results []*scenario.Result) error {
	views := make([]resultView, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		v := resultView{
			RunID:      res.RunID.String(),
			ScenarioID: res.ScenarioID,
			Story:      res.Story,
			Status:     string(res.Status),
			Duration:   res.CompletedAt.Sub(res.StartedAt),
		}
		if res.Err != nil {
			v.Error = res.Err.Error()
		}
		for _, st := range res.Steps {
			sv := stepView{Name: st.Name, Status: string(st.Status), Teardown: st.Teardown}
			if st.Err != nil {
				sv.Error = st.Err.Error()
			}
			v.Steps = append(v.Steps, sv)
		}
		views = append(views, v)
	}

	return out.print(views, []string{"SCENARIO", "STATUS", "DURATION", "RUN ID", "ERROR"}, func() [][]string {
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			rows = append(rows, []string{
				v.ScenarioID,
				v.Status,
				v.Duration.Round(time.Millisecond).String(),
				v.RunID,
				truncate(v.Error, 80),
			})
		}
		return rows
	})
}
