package rqlite

import (
	"net/url"
	"strings"

	"github.com/rqlite/gorqlite"

	store "github.com/medatechnology/storefront"
)

const DEFAULT_URL = "http://localhost:4001"

// Config describes how to reach the cluster. Credentials may also be given
// in the URL itself; explicit fields win.
type Config struct {
	URL         string
	Consistency string // none, weak, linearizable or strong
	Username    string
	Password    string
}

// Validate checks the URL and the consistency level.
func (c Config) Validate() error {
	if c.URL == "" {
		return store.WrapErrorWithFields(ErrRQLiteInvalidConfig, "CONFIG", "", map[string]interface{}{"missing": "url"})
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return store.WrapErrorWithFields(ErrRQLiteInvalidConfig, "CONFIG", "", map[string]interface{}{"url": c.URL})
	}
	if c.Consistency != "" {
		if _, err := gorqlite.ParseConsistencyLevel(strings.ToLower(c.Consistency)); err != nil {
			return store.WrapErrorWithFields(ErrRQLiteInvalidConfig, "CONFIG", "", map[string]interface{}{"consistency": c.Consistency})
		}
	}
	return nil
}

// DSN is the URL handed to gorqlite.Open, with credentials embedded.
func (c Config) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	u, _ := url.Parse(c.URL)
	if c.Username != "" || c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// String hides the password.
func (c Config) String() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return c.URL
	}
	if c.Username != "" {
		u.User = url.User(c.Username)
	} else if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}
