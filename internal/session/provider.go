package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"go-jobwatch-automation/internal/browser"
	"go-jobwatch-automation/internal/config"
	"go-jobwatch-automation/internal/scraper"
	"go-jobwatch-automation/internal/scraper/symplicity"

	"github.com/playwright-community/playwright-go"
)

var (
	possibleUser   = []string{`input[type="email"]`, `input[name="username"]`, `#username`, `input[type="text"]`}
	possiblePass   = []string{`input[type="password"]`, `#password`}
	possibleSubmit = []string{`button[type="submit"]`, `input[type="submit"]`, `button[name="login"]`, `button:has-text("Sign in")`}
)

// Provider owns the saved storage state: it opens sessions from it, probes
// it, and refreshes it through an interactive login.
type Provider struct {
	portal  config.PortalConfig
	cfg     config.SessionConfig
	log     *slog.Logger
	shooter *browser.ScreenshotDebugger
}

func NewProvider(portal config.PortalConfig, cfg config.SessionConfig, log *slog.Logger) *Provider {
	return &Provider{
		portal:  portal,
		cfg:     cfg,
		log:     log,
		shooter: browser.NewScreenshotDebugger(cfg.ScreenshotsDir, log),
	}
}

// handle is an open headless browser context restored from storage state.
type handle struct {
	pm   *browser.PlaywrightManager
	bctx playwright.BrowserContext
}

func (h *handle) Get(ctx context.Context, rawURL string, params map[string]any, headers map[string]string, timeout time.Duration) (*scraper.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := h.bctx.Request().Get(rawURL, playwright.APIRequestContextGetOptions{
		Params:  params,
		Headers: headers,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Dispose()

	body, err := resp.Body()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &scraper.Response{
		Status:      resp.Status(),
		ContentType: resp.Headers()["content-type"],
		Body:        body,
	}, nil
}

func (h *handle) Close() error {
	return errors.Join(h.bctx.Close(), h.pm.Close())
}

// Open restores the saved session headlessly and warms it by visiting the
// search page once. It satisfies scraper.SessionOpener.
func (p *Provider) Open(ctx context.Context) (scraper.Session, error) {
	if _, err := os.Stat(p.cfg.StateFile); err != nil {
		return nil, fmt.Errorf("%w: %s not found, run `jobwatch login` to create it", scraper.ErrSessionExpired, p.cfg.StateFile)
	}
	//a truncated or hand-edited state file needs a fresh login, not a retry
	if _, err := browser.LoadStorageState(p.cfg.StateFile); err != nil {
		return nil, fmt.Errorf("%w: %v, run `jobwatch login` to recreate it", scraper.ErrSessionExpired, err)
	}

	pm, err := browser.NewPlaywright(true)
	if err != nil {
		return nil, err
	}
	bctx, err := pm.NewContext(p.cfg.StateFile)
	if err != nil {
		_ = pm.Close()
		return nil, fmt.Errorf("%w: %v, run `jobwatch login` to recreate it", scraper.ErrSessionExpired, err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = pm.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	//warm session, a failure here shows up on the API call anyway
	if _, err := page.Goto(p.portal.TargetPage, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.portal.Timeout.Milliseconds())),
	}); err != nil {
		p.log.Warn("⚠️ Warm-up navigation failed", "error", err)
	}

	return &handle{pm: pm, bctx: bctx}, nil
}

// Check probes the API with the saved session.
func (p *Provider) Check(ctx context.Context) Health {
	h := Health{CheckedAt: time.Now()}

	params, err := url.ParseQuery(p.portal.CheckParams)
	if err != nil {
		h.Err = fmt.Errorf("invalid check params: %w", err)
		return h
	}
	query := make(map[string]any, len(params))
	for k := range params {
		query[k] = params.Get(k)
	}

	sess, err := p.Open(ctx)
	if err != nil {
		h.Err = err
		return h
	}
	defer sess.Close()

	headers := map[string]string{
		"Accept":                  "application/json, text/plain, */*",
		"x-requested-system-user": "students",
		"Referer":                 p.portal.TargetPage,
	}
	resp, err := sess.Get(ctx, p.portal.APIURL, query, headers, p.portal.Timeout)
	if err != nil {
		h.Err = &scraper.TransportError{Page: 1, Err: err}
		return h
	}

	h.Status = resp.Status
	h.ContentType = resp.ContentType
	h.Bytes = len(resp.Body)
	h.Preview = symplicity.Preview(resp.Body)
	h.Err = symplicity.CheckResponse(resp)
	h.OK = h.Err == nil
	h.CookiesExpire = p.cookieExpiry()
	return h
}

// cookieExpiry reads the earliest portal cookie expiry from the saved state.
func (p *Provider) cookieExpiry() time.Time {
	u, err := url.Parse(p.portal.TargetPage)
	if err != nil {
		return time.Time{}
	}
	state, err := browser.LoadStorageState(p.cfg.StateFile)
	if err != nil {
		p.log.Debug("could not read storage state", "error", err)
		return time.Time{}
	}
	exp, ok := state.EarliestExpiry(u.Hostname())
	if !ok {
		return time.Time{}
	}
	return exp
}

// Login runs the interactive login in a visible browser: credentials are
// filled in when the form is recognised, then the user finishes MFA. The
// storage state is saved once the browser reaches the search page.
func (p *Provider) Login(ctx context.Context) error {
	pm, err := browser.NewPlaywright(false)
	if err != nil {
		return err
	}
	defer pm.Close()

	bctx, err := pm.NewContext("")
	if err != nil {
		return err
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("could not create page: %w", err)
	}

	//navigate to a page that triggers SSO
	if _, err := page.Goto(p.portal.TargetPage, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("could not open login page: %w", err)
	}

	if p.cfg.HasCredentials() {
		if fillFirstVisible(page, possibleUser, p.cfg.Username) {
			if err := browser.Pause(ctx, 300*time.Millisecond, 800*time.Millisecond); err != nil {
				return err
			}
			fillFirstVisible(page, possiblePass, p.cfg.Password)
			if err := browser.Pause(ctx, 300*time.Millisecond, 800*time.Millisecond); err != nil {
				return err
			}
			clickFirstVisible(page, possibleSubmit)
		} else {
			p.log.Warn("⚠️ Login form not recognised, fill it in manually")
		}
	}

	p.log.Info("🔐 Complete the login (MFA) in the opened browser window", "timeout", p.cfg.LoginTimeout)
	if err := page.WaitForURL(p.cfg.LoggedInURL, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(float64(p.cfg.LoginTimeout.Milliseconds())),
	}); err != nil {
		p.shooter.CaptureAndLog(page, "login-timeout", "Login did not reach the search page")
		return fmt.Errorf("login not completed: %w", err)
	}

	if _, err := bctx.StorageState(p.cfg.StateFile); err != nil {
		return fmt.Errorf("could not save storage state: %w", err)
	}
	if err := os.Chmod(p.cfg.StateFile, 0600); err != nil {
		p.log.Warn("⚠️ Could not restrict storage state permissions", "error", err)
	}
	p.log.Info("💾 Saved storage state", "path", p.cfg.StateFile)
	return nil
}

// CanLogin reports whether Login can be attempted without a human typing
// the credentials.
func (p *Provider) CanLogin() bool {
	return p.cfg.HasCredentials()
}

func fillFirstVisible(page playwright.Page, selectors []string, value string) bool {
	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		if err := loc.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(1500),
		}); err != nil {
			continue
		}
		if err := loc.Fill(value); err == nil {
			return true
		}
	}
	return false
}

func clickFirstVisible(page playwright.Page, selectors []string) bool {
	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		if visible, _ := loc.IsVisible(); visible {
			if err := loc.Click(); err == nil {
				return true
			}
		}
	}
	return false
}
