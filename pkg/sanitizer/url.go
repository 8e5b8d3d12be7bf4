package sanitizer

import (
	"net/url"
	"strings"
)

// SanitizeURL forces https, lowercases the host and drops tracking query
// parameters. Paths keep their case. Unparseable input returns "".
func SanitizeURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	lowered := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lowered, "https://"):
	case strings.HasPrefix(lowered, "http://"):
		s = "https://" + s[len("http://"):]
	default:
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = "https"
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}
