package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"github.com/hairizuanbinnoorazman/ui-e2e/storage"
	"github.com/hairizuanbinnoorazman/ui-e2e/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testStores struct {
	db          *gorm.DB
	runs        *MySQLStore
	steps       *MySQLStepStore
	attachments *MySQLAttachmentStore
	log         *logger.TestLogger
}

// setupTestStores creates a migrated test database and its stores.
func setupTestStores(t *testing.T) testStores {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, Models()...)

	log := logger.NewTestLogger()
	return testStores{
		db:          db,
		runs:        NewMySQLStore(db, log),
		steps:       NewMySQLStepStore(db, log),
		attachments: NewMySQLAttachmentStore(db, log),
		log:         log,
	}
}

// setupTestReporter wires a Reporter to local storage in a temp dir.
func setupTestReporter(t *testing.T) (*Reporter, testStores, *storage.LocalStorage) {
	t.Helper()
	s := setupTestStores(t)
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	r := NewReporter(s.runs, s.steps, s.attachments, blobs, s.log)
	r.now = func() time.Time { return testTime }
	return r, s, blobs
}

var testTime = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

// createTestRun creates a run with default values.
func createTestRun(scenarioID string, status Status) *Run {
	return &Run{
		ScenarioID: scenarioID,
		Story:      "story of " + scenarioID,
		Status:     status,
	}
}

// createTestAttachment creates an attachment with default values.
func createTestAttachment(runID uuid.UUID, step, path string) *Attachment {
	return &Attachment{
		RunID:     runID,
		StepName:  step,
		AssetType: AssetTypeImage,
		AssetPath: path,
		FileName:  "shot.png",
		FileSize:  3,
		MimeType:  "image/png",
	}
}
