package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkSession is a user-declared work interval. A nil End means the
// session is still running.
type WorkSession struct {
	ID          uuid.UUID  `json:"id"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	HourlyRate  float64    `json:"hourly_rate"`
	CachedSteps *int       `json:"cached_steps,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EffectiveEnd returns End, or now for an ongoing session.
func (s WorkSession) EffectiveEnd(now time.Time) time.Time {
	if s.End != nil {
		return *s.End
	}
	return now
}

// Duration is EffectiveEnd minus Start, clamped to zero for sessions
// whose end was saved before their start.
func (s WorkSession) Duration(now time.Time) time.Duration {
	d := s.EffectiveEnd(now).Sub(s.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Ongoing reports whether the session has no end yet.
func (s WorkSession) Ongoing() bool {
	return s.End == nil
}
