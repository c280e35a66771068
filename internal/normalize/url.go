// Package normalize converts raw fetched thread data into the canonical
// shapes used for comparison and storage. Raw snapshots carry loosely typed
// fields straight off forum markup; nothing leaves this package unvalidated.
package normalize

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// defaultPorts maps schemes to their default port strings.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// pageSegment matches the trailing pagination segment of a thread URL,
// e.g. the "page-3" in /threads/some-topic.12345/page-3.
var pageSegment = regexp.MustCompile(`^page-\d+$`)

var (
	errEmptyURL            = errors.New("canonical url: empty input")
	errMissingSchemeOrHost = errors.New("canonical url: missing scheme or host")
)

// CanonicalThreadURL reduces a fetched thread URL to the canonical form used
// as the thread's identity. Equivalent URLs must collapse to one string: the
// scheme and host are lowercased, default ports removed, query, fragment and
// trailing pagination segments stripped, and dot-segments resolved.
func CanonicalThreadURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errEmptyURL
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("canonical url: %w", err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errMissingSchemeOrHost
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = normalizeHost(parsed)
	parsed.Fragment = ""
	parsed.RawQuery = ""
	parsed.User = nil
	parsed.Path = stripPagination(parsed.Path)

	return parsed.String(), nil
}

// normalizeHost lowercases the hostname and removes the scheme's default port.
func normalizeHost(u *url.URL) string {
	hostname := strings.ToLower(u.Hostname())

	port := u.Port()
	if port == "" {
		return hostname
	}

	if defaultPort, ok := defaultPorts[strings.ToLower(u.Scheme)]; ok && port == defaultPort {
		return hostname
	}

	return hostname + ":" + port
}

// stripPagination resolves dot-segments, drops a trailing /page-N segment,
// and removes trailing slashes while preserving the root "/".
func stripPagination(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	cleaned := strings.TrimRight(path.Clean(p), "/")

	if pageSegment.MatchString(path.Base(cleaned)) {
		cleaned = strings.TrimRight(path.Dir(cleaned), "/")
	}

	if cleaned == "" {
		return "/"
	}

	return cleaned
}

// Dedupe removes blanks and duplicates from a list while preserving
// first-seen order. Used for image/link/embed URL lists as well as thread
// categories and tags. Returns nil for an empty result so that empty and
// absent lists compare equal.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		if _, dup := seen[v]; dup {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
