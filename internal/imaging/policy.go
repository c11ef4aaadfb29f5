package imaging

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsafeSource is returned when a source must not be read back: it is
// cross-origin without being trusted, or its host is deny-listed.
var ErrUnsafeSource = errors.New("unsafe image source")

// DefaultDenyHosts lists hosts known to serve images that taint surfaces.
var DefaultDenyHosts = []string{"nipic.com", "example.com"}

// SourcePolicy decides whether pixels from an image source may be read.
type SourcePolicy struct {
	// DenyHosts are matched as substrings of the source.
	DenyHosts []string

	// TrustedOrigins are cross-origin origins known to serve readable
	// (CORS-enabled) images, e.g. "https://cdn.example.org".
	TrustedOrigins []string
}

// Check returns nil when src may be rasterized and read back by a document
// whose origin is docOrigin, or an error wrapping ErrUnsafeSource.
//
// data: URLs, file paths and same-origin URLs are safe. Other http(s) URLs
// are safe only when their origin is trusted. Deny-listed hosts are never
// safe.
func (p SourcePolicy) Check(src, docOrigin string) error {
	for _, host := range p.DenyHosts {
		if host != "" && strings.Contains(src, host) {
			return fmt.Errorf("%w: %s: deny-listed host %q", ErrUnsafeSource, shortSource(src), host)
		}
	}
	if p.Taints(src, docOrigin) {
		return fmt.Errorf("%w: %s: cross-origin", ErrUnsafeSource, shortSource(src))
	}
	return nil
}

// Taints reports whether drawing src into a surface owned by docOrigin
// would make the surface unreadable.
func (p SourcePolicy) Taints(src, docOrigin string) bool {
	switch scheme(src) {
	case "http", "https":
	default:
		return false
	}
	o := Origin(src)
	if o == "" || strings.EqualFold(o, docOrigin) {
		return false
	}
	for _, t := range p.TrustedOrigins {
		if strings.EqualFold(strings.TrimRight(t, "/"), o) {
			return false
		}
	}
	return true
}

// Origin returns "scheme://host[:port]" for http(s) URLs, "file://" for
// file URLs and paths, and "" for anything else (data: URLs included).
func Origin(src string) string {
	switch scheme(src) {
	case "http", "https":
		u, err := url.Parse(src)
		if err != nil || u.Host == "" {
			return ""
		}
		return strings.ToLower(u.Scheme + "://" + u.Host)
	case "file", "":
		return "file://"
	}
	return ""
}
