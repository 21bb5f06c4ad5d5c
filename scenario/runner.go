package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"golang.org/x/sync/errgroup"
)

// TeardownTimeout bounds teardown once the run context has been cancelled.
const TeardownTimeout = 30 * time.Second

// Runner executes scenarios, each in its own browser session.
type Runner struct {
	browser     driver.Browser
	source      envconfig.Source
	reporter    Reporter
	logger      logger.Logger
	concurrency int
	opts        []Option
	clock       Clock
}

// NewRunner creates a Runner. concurrency below 1 runs scenarios one at a
// time. opts apply to every step.
func NewRunner(browser driver.Browser, src envconfig.Source, reporter Reporter, log logger.Logger, concurrency int, opts ...Option) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		browser:     browser,
		source:      src,
		reporter:    reporter,
		logger:      log,
		concurrency: concurrency,
		opts:        opts,
		clock:       newOptions(opts).clock,
	}
}

// Run executes the scenarios and returns their results in input order. The
// error wraps ErrScenarioFailed when any scenario did not pass; a failing
// scenario never stops the others.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			results[i] = r.RunOne(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if !res.Passed() {
			failed++
		}
	}
	r.logger.Info(ctx, "run finished", map[string]interface{}{
		"scenarios": len(results),
		"failed":    failed,
	})
	if failed > 0 {
		return results, fmt.Errorf("%d of %d scenarios: %w", failed, len(results), ErrScenarioFailed)
	}
	return results, nil
}

// RunOne executes a single scenario.
func (r *Runner) RunOne(ctx context.Context, sc Scenario) *Result {
	res := &Result{
		RunID:      uuid.New(),
		ScenarioID: sc.ID,
		Story:      sc.Story,
		Status:     StatusRunning,
		StartedAt:  r.clock.Now(),
	}
	log := r.logger.WithFields(map[string]interface{}{
		"scenario_id": sc.ID,
		"run_id":      res.RunID.String(),
	})

	if err := r.reporter.Begin(ctx, res); err != nil {
		log.Warn(ctx, "failed to record scenario start", map[string]interface{}{
			"error": err.Error(),
		})
	}
	log.Info(ctx, "scenario started", map[string]interface{}{
		"story": sc.Story,
	})

	res.Err = r.execute(ctx, sc, res, log)
	res.CompletedAt = r.clock.Now()
	res.Status = StatusPassed
	if res.Err != nil {
		res.Status = StatusFailed
		log.Error(ctx, "scenario failed", map[string]interface{}{
			"error": res.Err.Error(),
		})
	} else {
		log.Info(ctx, "scenario passed", map[string]interface{}{
			"duration": res.CompletedAt.Sub(res.StartedAt).String(),
		})
	}

	if err := r.reporter.Finish(context.WithoutCancel(ctx), res); err != nil {
		log.Warn(ctx, "failed to record scenario result", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return res
}

func (r *Runner) execute(ctx context.Context, sc Scenario, res *Result, log logger.Logger) (err error) {
	var (
		cfg   *envconfig.Config
		steps []Step
	)
	err = r.record(res, "validate configuration", false, func() error {
		var verr error
		cfg, verr = envconfig.Validate(r.source, sc.Required, sc.Optional...)
		if verr != nil {
			return verr
		}
		if sc.Build != nil {
			steps, verr = sc.Build(cfg)
		}
		return verr
	})
	if err != nil {
		return err
	}

	page, err := r.browser.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn(ctx, "failed to close browser session", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
	}()

	env := &Env{
		Config:     cfg,
		Page:       page,
		Logger:     log,
		RunID:      res.RunID,
		ScenarioID: sc.ID,
		reporter:   r.reporter,
		base:       r.opts,
	}

	defer func() {
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), TeardownTimeout)
		defer cancel()
		terr := r.runSteps(tctx, env, res, sc.Teardown, true)
		if terr == nil {
			return
		}
		if err == nil {
			err = terr
			return
		}
		log.Error(ctx, "teardown failed after scenario failure", map[string]interface{}{
			"error": terr.Error(),
		})
	}()

	return r.runSteps(ctx, env, res, steps, false)
}

// runSteps stops at the first failing step and marks the rest skipped.
func (r *Runner) runSteps(ctx context.Context, env *Env, res *Result, steps []Step, teardown bool) error {
	for i, st := range steps {
		env.step = st.Name
		err := r.record(res, st.Name, teardown, func() error {
			env.Logger.Debug(ctx, "step started", map[string]interface{}{
				"step": st.Name,
			})
			return st.Run(ctx, env)
		})
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			env.Capture(context.WithoutCancel(ctx), "failure")
		}
		for _, rest := range steps[i+1:] {
			r.appendStep(res, StepResult{Name: rest.Name, Status: StatusSkipped, Teardown: teardown})
		}
		return fmt.Errorf("step %q: %w", st.Name, err)
	}
	return nil
}

func (r *Runner) record(res *Result, name string, teardown bool, fn func() error) error {
	start := r.clock.Now()
	err := fn()
	sr := StepResult{
		Name:      name,
		Status:    StatusPassed,
		Err:       err,
		Teardown:  teardown,
		StartedAt: start,
		Duration:  r.clock.Now().Sub(start),
	}
	if err != nil {
		sr.Status = StatusFailed
	}
	r.appendStep(res, sr)
	return err
}

func (r *Runner) appendStep(res *Result, sr StepResult) {
	res.Steps = append(res.Steps, sr)
}
