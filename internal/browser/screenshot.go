package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotDebugger saves full-page screenshots when a browser flow fails.
type ScreenshotDebugger struct {
	outputDir string
	log       *slog.Logger
}

func NewScreenshotDebugger(dir string, log *slog.Logger) *ScreenshotDebugger {
	return &ScreenshotDebugger{outputDir: dir, log: log}
}

func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("could not create screenshot dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
	s.log.Warn("📸 "+message, "path", path)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.log.Warn("⚠️ Failed to capture screenshot", "error", err)
		return "", err
	}
	return path, nil
}
