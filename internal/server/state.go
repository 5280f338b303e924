package server

import (
	"sync"
	"time"

	"go-jobwatch-automation/internal/reporter"
	"go-jobwatch-automation/internal/session"
)

// State is the latest scheduled-mode outcome, shared between the scheduler
// and the HTTP handlers.
type State struct {
	mu        sync.RWMutex
	startedAt time.Time
	cycle     *reporter.CycleSummary
	session   *session.Report

	//next fire times, set once the scheduler starts
	nextCycle func() time.Time
	nextCheck func() time.Time
}

func NewState(now time.Time) *State {
	return &State{startedAt: now}
}

func (s *State) RecordCycle(sum reporter.CycleSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle = &sum
}

func (s *State) RecordSession(r session.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &r
}

func (s *State) SetSchedule(nextCycle, nextCheck func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCycle = nextCycle
	s.nextCheck = nextCheck
}

type cycleView struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Duration    string    `json:"duration"`
	Since       string    `json:"since,omitempty"`
	OK          bool      `json:"ok"`
	Error       string    `json:"error,omitempty"`
	Fetched     int       `json:"fetched"`
	New         int       `json:"new"`
	Delivered   int       `json:"delivered"`
	Failed      int       `json:"failed"`
	Seeded      int       `json:"seeded"`
	Stale       int       `json:"stale"`
	AlreadySeen int       `json:"already_seen"`
}

type sessionView struct {
	CheckedAt time.Time `json:"checked_at"`
	Healthy   bool      `json:"healthy"`
	Status    int       `json:"status"`
	Relogged  bool      `json:"relogged"`
	Error     string    `json:"error,omitempty"`
}

type statusView struct {
	StartedAt   time.Time    `json:"started_at"`
	LastCycle   *cycleView   `json:"last_cycle"`
	LastSession *sessionView `json:"last_session_check"`
	NextCycle   *time.Time   `json:"next_cycle,omitempty"`
	NextCheck   *time.Time   `json:"next_session_check,omitempty"`
}

func (s *State) view() statusView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := statusView{StartedAt: s.startedAt}
	if c := s.cycle; c != nil {
		cv := &cycleView{
			ID:          c.CycleID,
			StartedAt:   c.StartedAt,
			Duration:    c.Duration.Round(time.Millisecond).String(),
			OK:          c.OK(),
			Fetched:     c.Fetched,
			New:         c.New,
			Delivered:   c.Delivered,
			Failed:      c.Failed,
			Seeded:      c.Seeded,
			Stale:       c.Stale,
			AlreadySeen: c.AlreadySeen,
		}
		if !c.Cutoff.IsZero() {
			cv.Since = c.Cutoff.Format(time.DateOnly)
		}
		if c.Err != nil {
			cv.Error = c.Err.Error()
		}
		v.LastCycle = cv
	}
	if r := s.session; r != nil {
		last := r.Initial
		if r.AfterRelogin != nil {
			last = *r.AfterRelogin
		}
		sv := &sessionView{CheckedAt: last.CheckedAt, Healthy: r.Healthy(), Status: last.Status, Relogged: r.Relogged}
		switch {
		case r.LoginErr != nil:
			sv.Error = r.LoginErr.Error()
		case last.Err != nil:
			sv.Error = last.Err.Error()
		}
		v.LastSession = sv
	}
	if s.nextCycle != nil {
		t := s.nextCycle()
		v.NextCycle = &t
	}
	if s.nextCheck != nil {
		t := s.nextCheck()
		v.NextCheck = &t
	}
	return v
}
