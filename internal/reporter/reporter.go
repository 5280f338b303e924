package reporter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-jobwatch-automation/internal/browser"
	"go-jobwatch-automation/internal/scraper"
	"go-jobwatch-automation/internal/session"
)

const timeLayout = "2006-01-02 15:04:05"

// CycleSummary is everything the status channel hears about one cycle.
type CycleSummary struct {
	CycleID   string
	StartedAt time.Time
	Duration  time.Duration
	Cutoff    time.Time

	Fetched     int
	New         int
	Stale       int
	AlreadySeen int
	NoID        int
	Seeded      int
	Delivered   int
	Failed      int

	//Err aborted the cycle; the others are warnings
	Err         error
	LoadErr     error
	SnapshotErr error
}

func (s CycleSummary) OK() bool {
	return s.Err == nil
}

// FormatCycle renders the status message for a cycle.
func FormatCycle(s CycleSummary) string {
	var b strings.Builder

	if s.Err != nil {
		fmt.Fprintf(&b, "FAILED: job cycle %s\n", s.CycleID)
		fmt.Fprintf(&b, "- Time: %s\n", s.StartedAt.Format(timeLayout))
		fmt.Fprintf(&b, "- Error: `%v`\n", s.Err)
		if hint := Remediation(s.Err); hint != "" {
			fmt.Fprintf(&b, "- Action: %s\n", hint)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "OK: job cycle %s\n", s.CycleID)
	fmt.Fprintf(&b, "- Time: %s (%s)\n", s.StartedAt.Format(timeLayout), s.Duration.Round(time.Second))
	fmt.Fprintf(&b, "- Since: %s\n", s.Cutoff.Format(time.DateOnly))
	fmt.Fprintf(&b, "- Fetched: %d\n", s.Fetched)
	if s.Seeded > 0 {
		fmt.Fprintf(&b, "- First run: seeded %d existing postings as seen (not posted)\n", s.Seeded)
	}
	fmt.Fprintf(&b, "- New: %d (delivered %d, failed %d)\n", s.New, s.Delivered, s.Failed)
	fmt.Fprintf(&b, "- Skipped: %d already seen, %d before cutoff", s.AlreadySeen, s.Stale)
	if s.NoID > 0 {
		fmt.Fprintf(&b, ", %d without id", s.NoID)
	}
	b.WriteString("\n")

	for _, w := range []struct {
		label string
		err   error
	}{
		{"Seen-set unreadable, reseeded", s.LoadErr},
		{"CSV not written", s.SnapshotErr},
	} {
		if w.err != nil {
			fmt.Fprintf(&b, "- Warning: %s: `%v`\n", w.label, w.err)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSession renders the status message for a session health check.
func FormatSession(r session.Report) string {
	var b strings.Builder
	h := r.Initial

	if h.OK {
		fmt.Fprintf(&b, "OK: session check (state)\n- Time: %s\n- Status: %d\n- Bytes: %d",
			h.CheckedAt.Format(timeLayout), h.Status, h.Bytes)
		if !h.CookiesExpire.IsZero() {
			fmt.Fprintf(&b, "\n- Cookies expire: %s", h.CookiesExpire.In(h.CheckedAt.Location()).Format(timeLayout))
		}
		return b.String()
	}

	fmt.Fprintf(&b, "FAILED: session check (state)\n- Time: %s\n", h.CheckedAt.Format(timeLayout))
	writeFailure(&b, h)

	switch {
	case !r.Relogged:
		fmt.Fprintf(&b, "- Action: %s", Remediation(scraper.ErrSessionExpired))
	case r.LoginErr != nil:
		fmt.Fprintf(&b, "- Re-login failed: `%v`", r.LoginErr)
	case r.AfterRelogin != nil && r.AfterRelogin.OK:
		fmt.Fprintf(&b, "OK: session check after re-login\n- Status: %d\n- Bytes: %d", r.AfterRelogin.Status, r.AfterRelogin.Bytes)
	case r.AfterRelogin != nil:
		b.WriteString("FAILED: session check still failing after re-login\n")
		writeFailure(&b, *r.AfterRelogin)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFailure(b *strings.Builder, h session.Health) {
	if h.Status != 0 {
		fmt.Fprintf(b, "- Status: %d\n- Content-Type: %s\n", h.Status, h.ContentType)
	}
	if h.Preview != "" {
		fmt.Fprintf(b, "- Body: `%s`\n", h.Preview)
	}
	if h.Err != nil {
		fmt.Fprintf(b, "- Error: `%v`\n", h.Err)
	}
}

// Remediation tells the user what to do about err, if anything.
func Remediation(err error) string {
	var te *scraper.TransportError
	switch {
	case errors.Is(err, scraper.ErrSessionExpired):
		return "session expired, run `jobwatch login` to sign in again (MFA required)"
	case errors.Is(err, browser.ErrUnavailable):
		return "install the browser with `go run github.com/playwright-community/playwright-go/cmd/playwright install chromium`"
	case errors.As(err, &te):
		return "network problem, the next cycle will retry"
	default:
		return ""
	}
}
