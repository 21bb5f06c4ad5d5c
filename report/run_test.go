package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"pending is valid", StatusPending, true},
		{"running is valid", StatusRunning, true},
		{"passed is valid", StatusPassed, true},
		{"failed is valid", StatusFailed, true},
		{"skipped is valid", StatusSkipped, true},
		{"invalid status", Status("invalid"), false},
		{"empty status", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestStatus_IsFinal(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"passed is final", StatusPassed, true},
		{"failed is final", StatusFailed, true},
		{"skipped is final", StatusSkipped, true},
		{"pending is not final", StatusPending, false},
		{"running is not final", StatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsFinal())
		})
	}
}

func TestRun_Validate(t *testing.T) {
	tests := []struct {
		name    string
		run     Run
		wantErr error
	}{
		{name: "valid run", run: Run{ScenarioID: "LOGIN01", Status: StatusPending}},
		{name: "missing scenario", run: Run{Status: StatusPending}, wantErr: ErrInvalidScenarioID},
		{name: "invalid status", run: Run{ScenarioID: "LOGIN01", Status: "nope"}, wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRun_Lifecycle(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	run := &Run{ScenarioID: "RATE01", Status: StatusPending}
	assert.ErrorIs(t, run.Complete(StatusPassed, "", end), ErrRunNotRunning)
	assert.Zero(t, run.Duration())

	require.NoError(t, run.Start(start))
	assert.Equal(t, StatusRunning, run.Status)
	assert.ErrorIs(t, run.Start(start), ErrRunAlreadyStarted)

	assert.ErrorIs(t, run.Complete(StatusRunning, "", end), ErrInvalidStatus)
	require.NoError(t, run.Complete(StatusFailed, "boom", end))
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "boom", run.Error)
	assert.Equal(t, 90*time.Second, run.Duration())
}

func TestStepRecord_Validate(t *testing.T) {
	run := createTestRun("X", StatusPending)
	run.BeforeCreate(nil)

	assert.NoError(t, (&StepRecord{RunID: run.ID, Name: "a", Status: StatusPassed}).Validate())
	assert.ErrorIs(t, (&StepRecord{Name: "a", Status: StatusPassed}).Validate(), ErrInvalidRunID)
	assert.ErrorIs(t, (&StepRecord{RunID: run.ID, Status: StatusPassed}).Validate(), ErrInvalidStepName)
	assert.ErrorIs(t, (&StepRecord{RunID: run.ID, Name: "a"}).Validate(), ErrInvalidStatus)
}

func TestAssetTypeFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        AssetType
	}{
		{"image/png", AssetTypeImage},
		{"image/jpeg", AssetTypeImage},
		{"video/webm", AssetTypeVideo},
		{"text/plain", AssetTypeDocument},
		{"application/json", AssetTypeDocument},
		{"application/octet-stream", AssetTypeBinary},
		{"", AssetTypeBinary},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, AssetTypeFor(tt.contentType))
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"after login", "after-login"},
		{"  Verify Login Form!! ", "verify-login-form"},
		{"check Logo/Link", "check-logo-link"},
		{"RATE01", "rate01"},
		{"---", "artifact"},
		{"", "artifact"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, slug(tt.in))
		})
	}
}
