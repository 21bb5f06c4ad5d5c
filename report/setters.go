package report

// SetStatus returns an UpdateSetter that sets the run's status.
func SetStatus(status Status) UpdateSetter {
	return func(r *Run) error {
		if !status.IsValid() {
			return ErrInvalidStatus
		}
		r.Status = status
		return nil
	}
}

// SetError returns an UpdateSetter that sets the run's error message.
func SetError(msg string) UpdateSetter {
	return func(r *Run) error {
		r.Error = msg
		return nil
	}
}

// SetStory returns an UpdateSetter that sets the run's story.
func SetStory(story string) UpdateSetter {
	return func(r *Run) error {
		r.Story = story
		return nil
	}
}
