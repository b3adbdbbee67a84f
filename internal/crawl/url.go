package crawl

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL so the visited set is a true set.
// It lowercases the scheme and host, removes default ports, and strips the
// query string and fragment: two URLs that differ only in query or fragment
// are the same page for migration purposes.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.RawQuery = ""
	u.Fragment = ""
	if u.Path == "/" {
		u.Path = ""
	}

	return u.String(), nil
}

// SameHost reports whether two URLs share a host.
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

// AbsoluteURL resolves maybeURL against base. Unparseable input is returned
// unchanged so callers can still log it.
func AbsoluteURL(base, maybeURL string) string {
	bu, err := url.Parse(base)
	if err != nil {
		return maybeURL
	}
	ref, err := url.Parse(maybeURL)
	if err != nil {
		return maybeURL
	}
	return bu.ResolveReference(ref).String()
}

// URLPath returns the path component of rawURL with a leading slash, or an
// empty string when the URL cannot be parsed.
func URLPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.Path
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// LastPathSegment returns the final non-empty path segment of rawURL.
func LastPathSegment(rawURL string) string {
	p := strings.Trim(URLPath(rawURL), "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	return parts[len(parts)-1]
}
