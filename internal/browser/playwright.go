package browser

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const UserAgent = "Mozilla/5.0"

// ErrUnavailable means the playwright driver or chromium could not start.
var ErrUnavailable = errors.New("browser unavailable")

// PlaywrightManager owns one playwright driver and one chromium instance.
type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywright starts the driver and launches chromium. Interactive logins
// need headless=false so the user can type the MFA code.
func NewPlaywright(headless bool) (*PlaywrightManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: could not start playwright: %v", ErrUnavailable, err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: could not launch chromium: %v", ErrUnavailable, err)
	}

	return &PlaywrightManager{pw: pw, browser: browser}, nil
}

// NewContext creates a browser context. With a non-empty statePath the
// saved storage state (cookies + local storage) is restored into it.
func (pm *PlaywrightManager) NewContext(statePath string) (playwright.BrowserContext, error) {
	opts := playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(UserAgent),
	}
	if statePath != "" {
		opts.StorageStatePath = playwright.String(statePath)
	}

	ctx, err := pm.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	return ctx, nil
}

func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		errs = append(errs, pm.browser.Close())
	}
	if pm.pw != nil {
		errs = append(errs, pm.pw.Stop())
	}
	return errors.Join(errs...)
}
