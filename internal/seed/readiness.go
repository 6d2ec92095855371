package seed

import (
	"sync/atomic"
	"time"
)

// ReadinessState tracks whether the first seed after startup has finished.
// The service also reports ready once the timeout elapses so a slow or
// failing source never keeps it out of rotation forever.
type ReadinessState struct {
	ready     atomic.Bool
	startTime time.Time     // immutable after construction
	timeout   time.Duration // immutable after construction
}

// ReadinessStatus is the JSON body of the readiness probe.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	Reason         string `json:"reason,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// NewReadinessState creates a not-ready state. A zero timeout means ready
// immediately.
func NewReadinessState(timeout time.Duration) *ReadinessState {
	return &ReadinessState{
		startTime: time.Now(),
		timeout:   timeout,
	}
}

// IsReady reports whether MarkReady was called or the timeout has elapsed.
func (s *ReadinessState) IsReady() bool {
	if s.ready.Load() {
		return true
	}
	return time.Since(s.startTime) >= s.timeout
}

// MarkReady marks the initial seed as done.
func (s *ReadinessState) MarkReady() {
	s.ready.Store(true)
}

// SeedCompleted reports whether MarkReady was called, ignoring the timeout.
func (s *ReadinessState) SeedCompleted() bool {
	return s.ready.Load()
}

// Status returns the current readiness status.
func (s *ReadinessState) Status() ReadinessStatus {
	isReady := s.IsReady()
	status := ReadinessStatus{
		Ready:          isReady,
		ElapsedSeconds: int(time.Since(s.startTime).Seconds()),
		TimeoutSeconds: int(s.timeout.Seconds()),
	}

	switch {
	case !isReady:
		status.Reason = "initial seed in progress"
	case !s.ready.Load():
		status.Reason = "timeout reached (seed may still be running)"
	}
	return status
}
