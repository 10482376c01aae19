// Package hours answers "is the café within its posted opening hours?".
//
// This is independent of the manual open/closed switch: the switch is the
// authority for taking orders, the schedule is advisory and shown beside it.
package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Kolkata must resolve on minimal images
)

// Defaults match the posted hours of the shop.
const (
	DefaultSpec     = "09:00-23:00"
	DefaultTimezone = "Asia/Kolkata"
)

// Schedule is a daily opening window in a fixed location. A window whose
// close is earlier than its open wraps past midnight.
type Schedule struct {
	open  int // minutes after midnight
	close int
	loc   *time.Location
}

// Parse builds a Schedule from "HH:MM-HH:MM" and an IANA timezone name.
func Parse(spec, timezone string) (*Schedule, error) {
	openStr, closeStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, fmt.Errorf("hours: %q: want HH:MM-HH:MM", spec)
	}
	open, err := parseClock(openStr)
	if err != nil {
		return nil, fmt.Errorf("hours: open: %w", err)
	}
	closeAt, err := parseClock(closeStr)
	if err != nil {
		return nil, fmt.Errorf("hours: close: %w", err)
	}
	if open == closeAt {
		return nil, fmt.Errorf("hours: %q: empty window", spec)
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("hours: timezone %q: %w", timezone, err)
	}
	return &Schedule{open: open, close: closeAt, loc: loc}, nil
}

// Default returns the shop's posted hours.
func Default() *Schedule {
	s, err := Parse(DefaultSpec, DefaultTimezone)
	if err != nil {
		panic(err)
	}
	return s
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%q: bad minute", s)
	}
	return h*60 + m, nil
}

// Location returns the schedule's timezone.
func (s *Schedule) Location() *time.Location { return s.loc }

// OpenAt reports whether t falls inside the window. Open is inclusive,
// close exclusive.
func (s *Schedule) OpenAt(t time.Time) bool {
	local := t.In(s.loc)
	m := local.Hour()*60 + local.Minute()
	if s.open < s.close {
		return m >= s.open && m < s.close
	}
	return m >= s.open || m < s.close
}

// NextChange returns the first instant after t at which OpenAt flips.
func (s *Schedule) NextChange(t time.Time) time.Time {
	local := t.In(s.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	target := s.close
	if !s.OpenAt(t) {
		target = s.open
	}
	for day := 0; day < 3; day++ {
		base := midnight.AddDate(0, 0, day)
		c := base.Add(time.Duration(target) * time.Minute)
		if c.After(t) {
			return c
		}
	}
	return midnight.AddDate(0, 0, 1).Add(time.Duration(target) * time.Minute)
}

// String renders the window as "HH:MM-HH:MM <zone>".
func (s *Schedule) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d %s", s.open/60, s.open%60, s.close/60, s.close%60, s.loc)
}
