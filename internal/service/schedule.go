package service

import (
	"time"

	"github.com/boon-market/support-router/internal/config"
)

// Schedule answers whether support staff are on shift at a given moment,
// in the branch reference timezone.
type Schedule struct {
	loc      *time.Location
	hourFrom int
	hourTo   int
}

// NewSchedule builds the staffed-window schedule. An unknown timezone
// falls back to UTC rather than failing startup.
func NewSchedule(cfg config.SupportConfig) *Schedule {
	loc, err := time.LoadLocation(cfg.BranchTimezone)
	if err != nil {
		loc = time.UTC
	}
	return &Schedule{loc: loc, hourFrom: cfg.StaffedHourFrom, hourTo: cfg.StaffedHourTo}
}

// Staffed reports whether the local hour falls in the staffed window,
// boundaries inclusive.
func (s *Schedule) Staffed(now time.Time) bool {
	hour := now.In(s.loc).Hour()
	return hour >= s.hourFrom && hour <= s.hourTo
}
