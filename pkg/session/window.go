package session

import (
	"fmt"
	"time"
)

// Window is the daily session window an acceptor may be configured with
// (§4.6): a [start, end) clock-time interval in a named time zone,
// recurring every day. A window whose end precedes its start spans
// midnight (e.g. 22:00–06:00).
type Window struct {
	start time.Duration // offset from local midnight
	end   time.Duration
	loc   *time.Location
}

// NewWindow builds a Window from "HH:MM:SS" clock times and an IANA
// time zone name.
func NewWindow(startTime, endTime, timeZone string) (*Window, error) {
	start, err := parseClock(startTime)
	if err != nil {
		return nil, fmt.Errorf("window start time: %w", err)
	}
	end, err := parseClock(endTime)
	if err != nil {
		return nil, fmt.Errorf("window end time: %w", err)
	}
	if start == end {
		return nil, fmt.Errorf("window start and end times are equal")
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("window time zone: %w", err)
	}
	return &Window{start: start, end: end, loc: loc}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM:SS, got %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// clockOffset returns t's offset from its own local midnight in w's zone.
func (w *Window) clockOffset(t time.Time) (time.Time, time.Duration) {
	lt := t.In(w.loc)
	midnight := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, w.loc)
	return midnight, lt.Sub(midnight)
}

// Contains reports whether t falls inside the window.
func (w *Window) Contains(t time.Time) bool {
	_, off := w.clockOffset(t)
	if w.start < w.end {
		return off >= w.start && off < w.end
	}
	// Spans midnight.
	return off >= w.start || off < w.end
}

// NextOpen returns the earliest instant at or after t at which the
// window is open; t itself when already inside.
func (w *Window) NextOpen(t time.Time) time.Time {
	if w.Contains(t) {
		return t
	}
	midnight, off := w.clockOffset(t)
	if off < w.start {
		return midnight.Add(w.start)
	}
	return midnight.Add(24*time.Hour + w.start)
}

// NextClose returns the earliest instant strictly after t at which the
// window closes — the session's logout_time when computed at connection
// time (§4.6).
func (w *Window) NextClose(t time.Time) time.Time {
	midnight, off := w.clockOffset(t)
	if off < w.end {
		return midnight.Add(w.end)
	}
	return midnight.Add(24*time.Hour + w.end)
}
