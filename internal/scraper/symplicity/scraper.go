package symplicity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-jobwatch-automation/internal/config"
	"go-jobwatch-automation/internal/filter"
	"go-jobwatch-automation/internal/models"
	"go-jobwatch-automation/internal/scraper"

	"golang.org/x/time/rate"
)

// maxPages caps a fetch when the API never reports a usable total.
const maxPages = 250

// Scraper pages through the portal's internal job-listing API.
type Scraper struct {
	cfg      config.PortalConfig
	open     scraper.SessionOpener
	loc      *time.Location
	log      *slog.Logger
	maxPages int
}

func NewScraper(cfg config.PortalConfig, open scraper.SessionOpener, loc *time.Location, log *slog.Logger) *Scraper {
	return &Scraper{
		cfg:      cfg,
		open:     open,
		loc:      loc,
		log:      log,
		maxPages: maxPages,
	}
}

func (s *Scraper) Name() string {
	return "Symplicity"
}

// Filters returns the configured fetch filters.
func (s *Scraper) Filters() models.FetchFilters {
	return models.FetchFilters{
		Sort:    s.cfg.Sort,
		PerPage: s.cfg.PerPage,
		JobType: s.cfg.JobType,
	}
}

// Headers sent with every API call; the portal checks the system-user header.
func (s *Scraper) Headers() map[string]string {
	return map[string]string{
		"Accept":                  "application/json, text/plain, */*",
		"x-requested-system-user": "students",
		"Referer":                 s.cfg.TargetPage,
	}
}

// FetchAll requests pages one at a time, sleeping between them, until a page
// comes back empty or the reported total is reached. The first failing page
// aborts the whole fetch.
func (s *Scraper) FetchAll(ctx context.Context, filters models.FetchFilters) ([]models.Posting, error) {
	session, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.log.Warn("⚠️ Failed to close session", "error", err)
		}
	}()

	perPage := filters.PerPage
	var limiter *rate.Limiter
	if s.cfg.Sleep > 0 {
		limiter = rate.NewLimiter(rate.Every(s.cfg.Sleep), 1)
	}

	var all []models.Posting
	for pageNo := 1; ; pageNo++ {
		if pageNo > s.maxPages {
			return nil, &scraper.TransportError{Page: pageNo, Err: fmt.Errorf("no end of results after %d pages", s.maxPages)}
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, &scraper.TransportError{Page: pageNo, Err: err}
			}
		}

		page, err := s.fetchPage(ctx, session, pageNo, perPage, filters)
		if err != nil {
			return nil, err
		}
		if page.PerPage > 0 {
			perPage = int(page.PerPage)
		}
		if len(page.Models) == 0 {
			break
		}

		for _, m := range page.Models {
			all = append(all, m.toPosting(s.cfg.TargetPage, s.loc))
		}
		s.log.Debug("📄 Fetched page", "page", pageNo, "jobs", len(page.Models), "total", page.Total)

		if page.Total > 0 && perPage > 0 && pageNo*perPage >= int(page.Total) {
			break
		}
	}

	s.log.Info("📦 Fetched postings", "count", len(all))
	return all, nil
}

func (s *Scraper) fetchPage(ctx context.Context, req scraper.Requester, pageNo, perPage int, filters models.FetchFilters) (*listPage, error) {
	params := map[string]any{
		"perPage":            perPage,
		"page":               pageNo,
		"sort":               filters.Sort,
		"json_mode":          "read_only",
		"enable_translation": "false",
	}
	//include job_type only when set (empty = fetch ALL)
	if filters.JobType != "" {
		params["job_type"] = filters.JobType
	}

	resp, err := req.Get(ctx, s.cfg.APIURL, params, s.Headers(), s.cfg.Timeout)
	if err != nil {
		return nil, &scraper.TransportError{Page: pageNo, Err: err}
	}
	if err := CheckResponse(resp); err != nil {
		var te *scraper.TransportError
		if errors.As(err, &te) {
			te.Page = pageNo
		}
		return nil, err
	}

	var page listPage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, &scraper.TransportError{Page: pageNo, Err: fmt.Errorf("decode: %w", err)}
	}
	return &page, nil
}

// CheckResponse classifies a raw API response. A rejected login shows up as
// 401/403 or as an HTML page (the SSO redirect) served with 200.
func CheckResponse(resp *scraper.Response) error {
	isJSON := strings.HasPrefix(resp.ContentType, "application/json")
	switch {
	case resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", scraper.ErrSessionExpired, resp.Status)
	case resp.Status == http.StatusOK && !isJSON:
		return fmt.Errorf("%w: got %q instead of JSON :: %s", scraper.ErrSessionExpired, resp.ContentType, Preview(resp.Body))
	case resp.Status != http.StatusOK:
		return &scraper.TransportError{Err: fmt.Errorf("HTTP %d %s :: %s", resp.Status, resp.ContentType, Preview(resp.Body))}
	}
	return nil
}

// Preview returns the first 300 bytes of body on one line.
func Preview(body []byte) string {
	if len(body) > 300 {
		body = body[:300]
	}
	return strings.ReplaceAll(string(body), "\n", " ")
}

func normalizeDate(raw string, loc *time.Location) time.Time {
	d, ok := filter.ParsePostDate(raw, loc)
	if !ok {
		return time.Time{}
	}
	return d
}
