package utils

import (
	"net/url"
	"strings"
)

// IsValidURL reports whether s parses as an absolute http(s) URL.
func IsValidURL(s string) bool {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
