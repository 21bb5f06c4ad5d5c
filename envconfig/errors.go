package envconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrMissingConfig matches any *MissingConfigError.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrInvalidConfig matches any *ValidationError.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MissingConfigError lists every required key that was absent or blank.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s\nadd to .env:\n%s",
		strings.Join(e.Keys, ", "), Template(e.Keys))
}

// Is reports whether target is ErrMissingConfig.
func (e *MissingConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// ValidationError describes a present but malformed value.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ValidationErrors extracts every *ValidationError from err.
func ValidationErrors(err error) []*ValidationError {
	var out []*ValidationError
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			var verr *ValidationError
			if errors.As(e, &verr) {
				out = append(out, verr)
			}
		}
		return out
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		out = append(out, verr)
	}
	return out
}

func formatValidationErrors(errs []error) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = "  * " + e.Error()
	}
	return fmt.Sprintf("invalid configuration (%d problems):\n%s", len(errs), strings.Join(lines, "\n"))
}
