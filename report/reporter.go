package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/hairizuanbinnoorazman/ui-e2e/scenario"
	"github.com/hairizuanbinnoorazman/ui-e2e/storage"
	"github.com/hashicorp/go-multierror"
)

var extensions = map[string]string{
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"text/plain":       ".txt",
	"text/html":        ".html",
	"application/json": ".json",
}

// Reporter persists scenario results and artifacts. It implements
// scenario.Reporter.
type Reporter struct {
	runs        Store
	steps       StepStore
	attachments AttachmentStore
	blobs       storage.BlobStorage
	logger      logger.Logger
	now         func() time.Time

	mu  sync.Mutex
	seq map[uuid.UUID]int
}

var _ scenario.Reporter = (*Reporter)(nil)

// NewReporter creates a Reporter.
func NewReporter(runs Store, steps StepStore, attachments AttachmentStore, blobs storage.BlobStorage, log logger.Logger) *Reporter {
	return &Reporter{
		runs:        runs,
		steps:       steps,
		attachments: attachments,
		blobs:       blobs,
		logger:      log,
		now:         time.Now,
		seq:         map[uuid.UUID]int{},
	}
}

// Begin records a started run.
func (r *Reporter) Begin(ctx context.Context, res *scenario.Result) error {
	run := &Run{
		ID:         res.RunID,
		ScenarioID: res.ScenarioID,
		Story:      res.Story,
		Status:     StatusPending,
	}
	if err := r.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	if err := r.runs.Start(ctx, run.ID, res.StartedAt); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// Attach uploads the artifact and records it against its step.
func (r *Reporter) Attach(ctx context.Context, a scenario.Attachment) error {
	r.mu.Lock()
	r.seq[a.RunID]++
	n := r.seq[a.RunID]
	r.mu.Unlock()

	ext, ok := extensions[a.ContentType]
	if !ok {
		ext = ".bin"
	}
	fileName := fmt.Sprintf("%03d-%s%s", n, slug(a.Name), ext)
	assetPath := path.Join("runs", a.RunID.String(), slug(a.Step), fileName)

	if err := r.blobs.Upload(ctx, assetPath, bytes.NewReader(a.Data), a.ContentType); err != nil {
		return fmt.Errorf("upload %s: %w", assetPath, err)
	}

	rec := &Attachment{
		RunID:       a.RunID,
		StepName:    a.Step,
		AssetType:   AssetTypeFor(a.ContentType),
		AssetPath:   assetPath,
		FileName:    fileName,
		FileSize:    int64(len(a.Data)),
		MimeType:    a.ContentType,
		Description: a.Name,
		UploadedAt:  r.now(),
	}
	if err := r.attachments.Create(ctx, rec); err != nil {
		// Clean up the uploaded blob on database error
		if derr := r.blobs.Delete(ctx, assetPath); derr != nil {
			r.logger.Warn(ctx, "failed to delete orphaned artifact", map[string]interface{}{
				"path":  assetPath,
				"error": derr.Error(),
			})
		}
		return fmt.Errorf("record attachment: %w", err)
	}
	return nil
}

// Finish records every step and completes the run. Step failures do not
// stop the run from being completed.
func (r *Reporter) Finish(ctx context.Context, res *scenario.Result) error {
	r.mu.Lock()
	delete(r.seq, res.RunID)
	r.mu.Unlock()

	var result *multierror.Error
	for i, st := range res.Steps {
		rec := &StepRecord{
			RunID:      res.RunID,
			StepIndex:  i,
			Name:       st.Name,
			Status:     Status(st.Status),
			Teardown:   st.Teardown,
			StartedAt:  st.StartedAt,
			DurationMS: st.Duration.Milliseconds(),
		}
		if st.Err != nil {
			rec.Error = st.Err.Error()
		}
		if err := r.steps.Upsert(ctx, rec); err != nil {
			result = multierror.Append(result, fmt.Errorf("step %q: %w", st.Name, err))
		}
	}

	var errMsg string
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	if err := r.runs.Complete(ctx, res.RunID, Status(res.Status), errMsg, res.CompletedAt); err != nil {
		result = multierror.Append(result, fmt.Errorf("complete run: %w", err))
	}
	return result.ErrorOrNil()
}

// AttachmentView is an attachment with a URL a viewer can open.
type AttachmentView struct {
	Attachment `yaml:",inline"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
}

// RunDetail is a run with its steps and attachments.
type RunDetail struct {
	Run         *Run             `json:"run" yaml:"run"`
	Steps       []*StepRecord    `json:"steps" yaml:"steps"`
	Attachments []AttachmentView `json:"attachments" yaml:"attachments"`
}

// Runs lists recorded runs.
func (r *Reporter) Runs(ctx context.Context, f Filter) ([]*Run, error) {
	return r.runs.List(ctx, f)
}

// Show loads a run with its steps and attachment URLs. A missing blob
// leaves the URL empty.
func (r *Reporter) Show(ctx context.Context, runID uuid.UUID) (*RunDetail, error) {
	run, err := r.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	steps, err := r.steps.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	atts, err := r.attachments.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Run: run, Steps: steps}
	for _, a := range atts {
		u, err := r.blobs.GetURL(ctx, a.AssetPath)
		if err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			return nil, fmt.Errorf("url for %s: %w", a.AssetPath, err)
		}
		detail.Attachments = append(detail.Attachments, AttachmentView{Attachment: *a, URL: u})
	}
	return detail, nil
}

// Export copies every attachment of a run into dst under its step
// directory and returns the number copied.
func (r *Reporter) Export(ctx context.Context, runID uuid.UUID, dst storage.BlobStorage) (int, error) {
	if _, err := r.runs.GetByID(ctx, runID); err != nil {
		return 0, err
	}
	atts, err := r.attachments.ListByRun(ctx, runID)
	if err != nil {
		return 0, err
	}

	prefix := path.Join("runs", runID.String()) + "/"
	n := 0
	for _, a := range atts {
		if err := copyBlob(ctx, r.blobs, dst, a.AssetPath, strings.TrimPrefix(a.AssetPath, prefix), a.MimeType); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func copyBlob(ctx context.Context, src, dst storage.BlobStorage, from, to, contentType string) error {
	rc, err := src.Download(ctx, from)
	if err != nil {
		return fmt.Errorf("download %s: %w", from, err)
	}
	defer rc.Close()
	if err := dst.Upload(ctx, to, rc, contentType); err != nil {
		return fmt.Errorf("write %s: %w", to, err)
	}
	return nil
}

// Prune deletes runs created before the cutoff with their steps,
// attachment records and blobs. It returns the number of runs removed.
func (r *Reporter) Prune(ctx context.Context, before time.Time) (int, error) {
	runs, err := r.runs.List(ctx, Filter{Before: before})
	if err != nil {
		return 0, err
	}

	var result *multierror.Error
	removed := 0
	for _, run := range runs {
		if !run.Status.IsFinal() {
			continue
		}
		if err := r.deleteRun(ctx, run.ID); err != nil {
			result = multierror.Append(result, fmt.Errorf("run %s: %w", run.ID, err))
			continue
		}
		removed++
	}

	r.logger.Info(ctx, "runs pruned", map[string]interface{}{
		"before":  before.Format(time.RFC3339),
		"removed": removed,
	})
	return removed, result.ErrorOrNil()
}

func (r *Reporter) deleteRun(ctx context.Context, id uuid.UUID) error {
	atts, err := r.attachments.ListByRun(ctx, id)
	if err != nil {
		return err
	}
	for _, a := range atts {
		if err := r.blobs.Delete(ctx, a.AssetPath); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			return err
		}
		if err := r.attachments.Delete(ctx, a.ID); err != nil {
			return err
		}
	}
	if err := r.steps.DeleteByRun(ctx, id); err != nil {
		return err
	}
	return r.runs.Delete(ctx, id)
}

// slug lowercases s and joins its alphanumeric runs with dashes.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(s) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(c)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "artifact"
	}
	return b.String()
}
