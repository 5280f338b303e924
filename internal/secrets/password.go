package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go-jobwatch-automation/internal/config"

	"github.com/zalando/go-keyring"
)

const KeyringService = "jobwatch"

var ErrNotFound = errors.New("portal password not found (set it with `jobwatch credentials set` or BCIT_PASS)")

func GetPortalPassword(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", ErrNotFound
	}
	pw, err := keyring.Get(KeyringService, account)
	if err != nil || strings.TrimSpace(pw) == "" {
		return "", ErrNotFound
	}
	return pw, nil
}

func SetPortalPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeletePortalPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// PortalAccount names the keyring entry for the configured user and portal host.
func PortalAccount(cfg *config.Config) string {
	if cfg.Session.Username == "" {
		return ""
	}
	host := ""
	if u, err := url.Parse(cfg.Portal.TargetPage); err == nil {
		host = u.Host
	}
	return fmt.Sprintf("jobwatch:portal:%s@%s", cfg.Session.Username, host)
}

// ResolvePassword fills the session password from the keyring when the
// environment did not provide one. It reports whether a password is set.
func ResolvePassword(cfg *config.Config) bool {
	if cfg.Session.Password != "" {
		return true
	}
	pw, err := GetPortalPassword(PortalAccount(cfg))
	if err != nil {
		return false
	}
	cfg.Session.Password = pw
	return true
}
