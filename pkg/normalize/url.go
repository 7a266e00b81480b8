package normalize

import (
	"net/url"
	"strings"
)

// ExtractDomain returns the lower-cased host of a website with any leading
// "www." removed. A missing scheme is treated as https. Unparsable input
// yields "".
func ExtractDomain(raw string) string {
	u := parseWebsite(raw)
	if u == nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// CanonicalURL returns raw as an absolute URL, adding https:// when no
// scheme is present. Unparsable input yields "".
func CanonicalURL(raw string) string {
	u := parseWebsite(raw)
	if u == nil {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

func parseWebsite(raw string) *url.URL {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	return u
}
