package session

import (
	"context"
	"time"
)

// Health is the result of one session probe.
type Health struct {
	OK          bool
	Status      int
	ContentType string
	Bytes       int
	Preview     string
	Err         error
	CheckedAt   time.Time
	//earliest persistent portal cookie expiry, zero when unknown
	CookiesExpire time.Time
}

// Authenticator probes and refreshes the session.
type Authenticator interface {
	Check(ctx context.Context) Health
	Login(ctx context.Context) error
	CanLogin() bool
}

// Report describes one health-check run, including the re-login attempt.
type Report struct {
	Initial      Health
	Relogged     bool
	LoginErr     error
	AfterRelogin *Health
}

// Healthy reports whether the session works at the end of the run.
func (r Report) Healthy() bool {
	if r.AfterRelogin != nil {
		return r.AfterRelogin.OK
	}
	return r.Initial.OK
}

// EnsureHealthy probes the session and, if it is rejected and a login can be
// attempted, logs in again and re-probes once.
func EnsureHealthy(ctx context.Context, auth Authenticator, allowLogin bool) Report {
	report := Report{Initial: auth.Check(ctx)}
	if report.Initial.OK || !allowLogin || !auth.CanLogin() {
		return report
	}

	report.Relogged = true
	if err := auth.Login(ctx); err != nil {
		report.LoginErr = err
		return report
	}
	after := auth.Check(ctx)
	report.AfterRelogin = &after
	return report
}
