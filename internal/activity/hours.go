package activity

import (
	"time"

	"github.com/claude/workpulse/internal/calendar"
	"github.com/claude/workpulse/internal/models"
)

// Hours is the time worked in a period and what it pays.
type Hours struct {
	Hours    float64 `json:"hours"`
	Pay      float64 `json:"pay"`
	Sessions int     `json:"sessions"`
}

// WeekHours totals the sessions starting inside week. Each session counts
// in full, including any part after midnight or after the week ends, and
// ongoing sessions run until now. It never consults a metric source.
func WeekHours(sessions []models.WorkSession, week calendar.Interval, now time.Time) Hours {
	var h Hours
	for _, s := range sessions {
		if !week.Contains(s.Start) {
			continue
		}
		hours := s.Duration(now).Hours()
		h.Hours += hours
		h.Pay += hours * s.HourlyRate
		h.Sessions++
	}
	return h
}

// SessionsIn returns the sessions starting inside r, keeping store order.
func SessionsIn(sessions []models.WorkSession, r calendar.Interval) []models.WorkSession {
	var out []models.WorkSession
	for _, s := range sessions {
		if r.Contains(s.Start) {
			out = append(out, s)
		}
	}
	return out
}
