// Package keys builds the redis keys used for cached town responses.
package keys

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const townsPrefix = "towns"

// Towns returns the cache key for a town list fetched from base with limit.
// The readable host part is informational; the hash of the normalized base
// URL keeps distinct services apart.
func Towns(base string, limit int) string {
	norm := normalizeBase(base)
	return fmt.Sprintf("%s:%s:%d:u=%016x", townsPrefix, sanitizeForKey(hostOf(norm)), limit, xxhash.Sum64String(norm))
}

func normalizeBase(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "/")
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

func hostOf(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '.' || r == '_' || r == '-':
			out = r
		default:
			// ports and anything non-ASCII become '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
