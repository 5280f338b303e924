package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Cookie is one cookie as written to a playwright storage-state file.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// StorageState is the session artifact saved after login.
type StorageState struct {
	Cookies []Cookie `json:"cookies"`
	Origins []struct {
		Origin string `json:"origin"`
	} `json:"origins"`
}

func LoadStorageState(path string) (*StorageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("invalid storage state %s: %w", path, err)
	}
	return &state, nil
}

// IsSession reports whether the cookie lives until the browser closes.
func (c Cookie) IsSession() bool {
	return c.Expires <= 0
}

func (c Cookie) ExpiresAt() time.Time {
	sec := int64(c.Expires)
	nsec := int64((c.Expires - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// EarliestExpiry returns the first expiry among persistent cookies for
// domain (suffix match). ok is false when no persistent cookie matches.
func (s *StorageState) EarliestExpiry(domain string) (t time.Time, ok bool) {
	for _, c := range s.Cookies {
		if c.IsSession() || !domainMatches(c.Domain, domain) {
			continue
		}
		exp := c.ExpiresAt()
		if !ok || exp.Before(t) {
			t, ok = exp, true
		}
	}
	return t, ok
}

func domainMatches(cookieDomain, host string) bool {
	if cookieDomain == "" || host == "" {
		return false
	}
	if cookieDomain[0] == '.' {
		cookieDomain = cookieDomain[1:]
	}
	if host == cookieDomain {
		return true
	}
	return len(host) > len(cookieDomain) && host[len(host)-len(cookieDomain)-1:] == "."+cookieDomain
}
