package scenario

import (
	"context"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/driver"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
)

// Env is what a step works with. It belongs to a single scenario run and is
// used by one goroutine at a time.
type Env struct {
	Config     *envconfig.Config
	Page       driver.Page
	Logger     logger.Logger
	RunID      uuid.UUID
	ScenarioID string

	reporter Reporter
	base     []Option
	step     string
}

// Options returns the loop options for this run, with captures attributed to
// the current step.
func (e *Env) Options() []Option {
	opts := make([]Option, 0, len(e.base)+2)
	opts = append(opts, e.base...)
	opts = append(opts, WithLogger(e.Logger), WithCapture(e.Capture))
	return opts
}

// Capture screenshots the page and attaches it to the current step. Failures
// are logged and otherwise ignored.
func (e *Env) Capture(ctx context.Context, name string) {
	e.capturePage(ctx, e.Page, name)
}

func (e *Env) capturePage(ctx context.Context, page driver.Page, name string) {
	data, err := page.Screenshot(ctx, false)
	if err != nil {
		e.Logger.Warn(ctx, "failed to take screenshot", map[string]interface{}{
			"step":  e.step,
			"name":  name,
			"error": err.Error(),
		})
		return
	}
	err = e.reporter.Attach(ctx, Attachment{
		RunID:       e.RunID,
		ScenarioID:  e.ScenarioID,
		Step:        e.step,
		Name:        name,
		ContentType: "image/png",
		Data:        data,
	})
	if err != nil {
		e.Logger.Warn(ctx, "failed to attach screenshot", map[string]interface{}{
			"step":  e.step,
			"name":  name,
			"error": err.Error(),
		})
	}
}
