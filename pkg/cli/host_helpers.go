package cli

import (
	"fmt"
	"net/url"
	"strings"
)

func validateHostURL(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("invalid url %q: backend URL cannot be empty", host)
	}

	u, err := url.Parse(host)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", host)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", host)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid url %q: must not include query or fragment", host)
	}
	return nil
}
