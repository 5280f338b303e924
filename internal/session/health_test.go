package session

import (
	"context"
	"errors"
	"testing"

	"go-jobwatch-automation/internal/scraper"

	"github.com/stretchr/testify/assert"
)

type fakeAuth struct {
	checks    []Health
	loginErr  error
	canLogin  bool
	logins    int
	checkCall int
}

func (f *fakeAuth) Check(ctx context.Context) Health {
	h := f.checks[f.checkCall]
	f.checkCall++
	return h
}

func (f *fakeAuth) Login(ctx context.Context) error {
	f.logins++
	return f.loginErr
}

func (f *fakeAuth) CanLogin() bool { return f.canLogin }

func TestEnsureHealthy(t *testing.T) {
	ok := Health{OK: true, Status: 200}
	expired := Health{Status: 200, Err: scraper.ErrSessionExpired}

	t.Run("healthy session skips login", func(t *testing.T) {
		auth := &fakeAuth{checks: []Health{ok}, canLogin: true}
		r := EnsureHealthy(context.Background(), auth, true)
		assert.True(t, r.Healthy())
		assert.False(t, r.Relogged)
		assert.Zero(t, auth.logins)
	})

	t.Run("expired session re-logs and re-checks", func(t *testing.T) {
		auth := &fakeAuth{checks: []Health{expired, ok}, canLogin: true}
		r := EnsureHealthy(context.Background(), auth, true)
		assert.True(t, r.Relogged)
		assert.True(t, r.Healthy())
		assert.Equal(t, 1, auth.logins)
	})

	t.Run("still failing after re-login", func(t *testing.T) {
		auth := &fakeAuth{checks: []Health{expired, expired}, canLogin: true}
		r := EnsureHealthy(context.Background(), auth, true)
		assert.True(t, r.Relogged)
		assert.False(t, r.Healthy())
	})

	t.Run("login failure is reported", func(t *testing.T) {
		auth := &fakeAuth{checks: []Health{expired}, canLogin: true, loginErr: errors.New("timeout")}
		r := EnsureHealthy(context.Background(), auth, true)
		assert.EqualError(t, r.LoginErr, "timeout")
		assert.Nil(t, r.AfterRelogin)
		assert.False(t, r.Healthy())
	})

	t.Run("no credentials means no login", func(t *testing.T) {
		auth := &fakeAuth{checks: []Health{expired}}
		r := EnsureHealthy(context.Background(), auth, true)
		assert.False(t, r.Relogged)
		assert.Zero(t, auth.logins)
	})

	t.Run("login not allowed", func(t *testing.T) {
		auth := &fakeAuth{checks: []Health{expired}, canLogin: true}
		r := EnsureHealthy(context.Background(), auth, false)
		assert.False(t, r.Relogged)
	})
}
