// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values, validate

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Portal   PortalConfig   `yaml:"portal"`
	Session  SessionConfig  `yaml:"session"`
	Notify   NotifyConfig   `yaml:"notify"`
	Store    StoreConfig    `yaml:"store"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`

	//Paths
	OutputCSV string `yaml:"output_csv"`

	//Reference timezone for cutoff dates and the daily session check
	TimeZone string `yaml:"time_zone"`
	//Optional YYYY-MM-DD cutoff, overridden by --since
	PostSince string `yaml:"post_since"`

	//HTTP status server for scheduled mode, empty = disabled
	StatusAddr string `yaml:"status_addr"`
}

type PortalConfig struct {
	TargetPage string `yaml:"target_page"`
	APIURL     string `yaml:"api_url"`
	Sort       string `yaml:"sort"`
	PerPage    int    `yaml:"per_page"`
	//leave empty to fetch ALL jobs
	JobType string        `yaml:"job_type"`
	Sleep   time.Duration `yaml:"sleep"`
	Timeout time.Duration `yaml:"timeout"`
	//Query string for the session probe request
	CheckParams string `yaml:"check_params"`
}

type SessionConfig struct {
	StateFile    string        `yaml:"state_file"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"-"`
	LoginTimeout time.Duration `yaml:"login_timeout"`
	//URL glob the browser lands on after a successful login
	LoggedInURL    string `yaml:"logged_in_url"`
	ScreenshotsDir string `yaml:"screenshots_dir"`
}

type NotifyConfig struct {
	PrimaryWebhook  string `yaml:"primary_webhook"`
	FallbackWebhook string `yaml:"fallback_webhook"`
	StatusWebhook   string `yaml:"status_webhook"`
	TelegramToken   string `yaml:"-"`
	TelegramChatID  int64  `yaml:"telegram_chat_id"`
	//Delay between two posting messages to avoid 429
	SendDelay time.Duration `yaml:"send_delay"`
	Timeout   time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	//file, sqlite or postgres
	Driver string `yaml:"driver"`
	//Seen-set file for the file driver, database path for sqlite
	Path string `yaml:"path"`
	DSN  string `yaml:"-"`
}

type ScheduleConfig struct {
	CycleEvery     time.Duration `yaml:"cycle_every"`
	SessionCheckAt string        `yaml:"session_check_at"`
	RunOnStart     bool          `yaml:"run_on_start"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from .env, the YAML file at path and the process
// environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("⚠️ Could not read config file", "path", path, "error", err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	str("STATE_FILE", &c.Session.StateFile)
	str("TARGET_PAGE", &c.Portal.TargetPage)
	str("CHECK_URL", &c.Portal.APIURL)
	str("CHECK_PARAMS", &c.Portal.CheckParams)
	str("BCIT_SORT", &c.Portal.Sort)
	str("BCIT_JOB_TYPE", &c.Portal.JobType)
	str("BCIT_USER", &c.Session.Username)
	str("BCIT_PASS", &c.Session.Password)
	str("DISCORD_WEBHOOK_URL", &c.Notify.PrimaryWebhook)
	str("FALLBACK_WEBHOOK_URL", &c.Notify.FallbackWebhook)
	//the session checker historically read this (misspelled) name
	str("TESTING_WEBHOOK_UR", &c.Notify.StatusWebhook)
	str("STATUS_WEBHOOK_URL", &c.Notify.StatusWebhook)
	str("TELEGRAM_BOT_TOKEN", &c.Notify.TelegramToken)
	str("OUTPUT_CSV", &c.OutputCSV)
	str("STATE_IDS", &c.Store.Path)
	str("STORE_DRIVER", &c.Store.Driver)
	str("STORE_DSN", &c.Store.DSN)
	str("LOCAL_TZ", &c.TimeZone)
	str("POST_SINCE", &c.PostSince)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("STATUS_ADDR", &c.StatusAddr)
	str("SESSION_CHECK_AT", &c.Schedule.SessionCheckAt)

	if v := os.Getenv("BCIT_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCIT_PER_PAGE: %w", err)
		}
		c.Portal.PerPage = n
	}

	if v := os.Getenv("REQ_SLEEP"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid REQ_SLEEP: %w", err)
		}
		c.Portal.Sleep = time.Duration(secs * float64(time.Second))
	}

	if v := os.Getenv("REQ_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REQ_TIMEOUT_MS: %w", err)
		}
		c.Portal.Timeout = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv("CYCLE_EVERY_HOURS"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CYCLE_EVERY_HOURS: %w", err)
		}
		c.Schedule.CycleEvery = time.Duration(hours * float64(time.Hour))
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Notify.TelegramChatID = id
	}
	return nil
}

// SetDefaults fills every unset field with the value the tool has always used.
func (c *Config) SetDefaults() {
	if c.Portal.TargetPage == "" {
		c.Portal.TargetPage = "https://bcit-csm.symplicity.com/students/app/jobs/search?perPage=20&page=1&sort=!postdate"
	}
	if c.Portal.APIURL == "" {
		c.Portal.APIURL = "https://bcit-csm.symplicity.com/api/v2/jobs"
	}
	if c.Portal.Sort == "" {
		c.Portal.Sort = "!postdate"
	}
	if c.Portal.PerPage == 0 {
		c.Portal.PerPage = 20
	}
	if c.Portal.Sleep == 0 {
		c.Portal.Sleep = 400 * time.Millisecond
	}
	if c.Portal.Timeout == 0 {
		c.Portal.Timeout = 20 * time.Second
	}
	if c.Portal.CheckParams == "" {
		c.Portal.CheckParams = "perPage=1&sort=!postdate&json_mode=read_only&enable_translation=false"
	}

	if c.Session.StateFile == "" {
		c.Session.StateFile = "state.json"
	}
	if c.Session.LoginTimeout == 0 {
		c.Session.LoginTimeout = 3 * time.Minute
	}
	if c.Session.LoggedInURL == "" {
		c.Session.LoggedInURL = "**/students/app/jobs/search**"
	}
	if c.Session.ScreenshotsDir == "" {
		c.Session.ScreenshotsDir = "logs/screenshots"
	}

	if c.Notify.SendDelay == 0 {
		c.Notify.SendDelay = time.Second
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 15 * time.Second
	}

	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Path == "" {
		c.Store.Path = "seen_job_ids.json"
	}

	if c.Schedule.CycleEvery == 0 {
		c.Schedule.CycleEvery = 6 * time.Hour
	}
	if c.Schedule.SessionCheckAt == "" {
		c.Schedule.SessionCheckAt = "08:00"
	}

	if c.OutputCSV == "" {
		c.OutputCSV = "bcit_jobs.csv"
	}
	if c.TimeZone == "" {
		c.TimeZone = "America/Vancouver"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.Portal.APIURL); err != nil {
		errs = append(errs, fmt.Errorf("portal.api_url: %w", err))
	}
	if _, err := url.ParseRequestURI(c.Portal.TargetPage); err != nil {
		errs = append(errs, fmt.Errorf("portal.target_page: %w", err))
	}
	if c.Portal.PerPage <= 0 {
		errs = append(errs, errors.New("portal.per_page must be > 0"))
	}
	if c.Portal.Sleep < 0 {
		errs = append(errs, errors.New("portal.sleep must be >= 0"))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("time_zone %q: %w", c.TimeZone, err))
	}
	if c.PostSince != "" {
		if _, err := time.Parse(time.DateOnly, c.PostSince); err != nil {
			errs = append(errs, fmt.Errorf("post_since must be YYYY-MM-DD: %w", err))
		}
	}

	switch c.Store.Driver {
	case "file", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required"))
		}
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("STORE_DSN is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q must be file, sqlite or postgres", c.Store.Driver))
	}

	if c.Schedule.CycleEvery < time.Minute {
		errs = append(errs, errors.New("schedule.cycle_every must be at least 1m"))
	}
	if _, _, err := c.Schedule.CheckTime(); err != nil {
		errs = append(errs, err)
	}

	if c.Notify.TelegramToken != "" && c.Notify.TelegramChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}

	return errors.Join(errs...)
}

// Location returns the reference timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CheckTime parses SessionCheckAt as HH:MM.
func (s ScheduleConfig) CheckTime() (hour, minute int, err error) {
	t, err := time.Parse("15:04", s.SessionCheckAt)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.session_check_at %q must be HH:MM: %w", s.SessionCheckAt, err)
	}
	return t.Hour(), t.Minute(), nil
}

// HasCredentials reports whether an automatic login can be attempted.
func (s SessionConfig) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}
