package domain

import (
	"fmt"
	"time"
)

// Default values for SyncSettings.
const (
	DefaultStatusTimeout   = 30 * time.Second
	DefaultStageTimeout    = 10 * time.Minute
	DefaultBatchTimeout    = 5 * time.Minute
	DefaultPollInterval    = 2 * time.Second
	DefaultPollTimeout     = 15 * time.Second
	DefaultPollMaxFailures = 30
	DefaultStallThreshold  = 3
	DefaultBatchDelay      = 500 * time.Millisecond
	DefaultRateLimit       = 5.0
)

// SyncSettings holds the tunable parameters of the orchestrator.
type SyncSettings struct {
	// StatusTimeout bounds quick queries (check files, progress, preview).
	StatusTimeout time.Duration

	// StageTimeout bounds a single stage 1 or stage 2 request.
	StageTimeout time.Duration

	// BatchTimeout bounds one stage 3 batch request.
	BatchTimeout time.Duration

	// PollInterval is the period between progress polls.
	PollInterval time.Duration

	// PollTimeout bounds one progress poll.
	PollTimeout time.Duration

	// PollMaxFailures stops the poller after this many consecutive failed
	// polls. Zero means unbounded.
	PollMaxFailures int

	// StallThreshold is the number of consecutive batches without progress
	// that ends a stage 3 run.
	StallThreshold int

	// BatchDelay is the pause between stage 3 batches.
	BatchDelay time.Duration
}

// DefaultSyncSettings returns the defaults for all settings.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		StatusTimeout:   DefaultStatusTimeout,
		StageTimeout:    DefaultStageTimeout,
		BatchTimeout:    DefaultBatchTimeout,
		PollInterval:    DefaultPollInterval,
		PollTimeout:     DefaultPollTimeout,
		PollMaxFailures: DefaultPollMaxFailures,
		StallThreshold:  DefaultStallThreshold,
		BatchDelay:      DefaultBatchDelay,
	}
}

// Validate checks that the settings are usable.
func (s SyncSettings) Validate() error {
	if s.StatusTimeout <= 0 || s.StageTimeout <= 0 || s.BatchTimeout <= 0 || s.PollTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidInput)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidInput)
	}
	if s.StallThreshold < 1 {
		return fmt.Errorf("%w: stall threshold must be at least 1", ErrInvalidInput)
	}
	if s.BatchDelay < 0 || s.PollMaxFailures < 0 {
		return fmt.Errorf("%w: batch delay and poll failure ceiling cannot be negative", ErrInvalidInput)
	}
	return nil
}

// RemoteSettings configures the HTTP endpoint of the remote job.
type RemoteSettings struct {
	// Endpoint is the URL every action is posted to.
	Endpoint string

	// BearerToken, when set, is sent as an Authorization header.
	BearerToken string

	// SyncToken authenticates the sync action class (stage runs, progress, stop).
	SyncToken string

	// FilesToken authenticates the files action class (check, preview, delete).
	FilesToken string

	// RateLimit caps requests per second sent to the endpoint.
	RateLimit float64
}

// Validate checks the remote settings.
func (r RemoteSettings) Validate() error {
	if r.Endpoint == "" {
		return fmt.Errorf("%w: remote endpoint is not configured", ErrInvalidInput)
	}
	return nil
}
