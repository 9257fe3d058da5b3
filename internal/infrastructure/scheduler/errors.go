package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when the trigger configuration is unusable
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrRunInProgress is returned when a cash cut is requested while another is running
	ErrRunInProgress = errors.New("cash cut already in progress")
)
