// Package validation classifies the links found in navigation files.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkKind is the category of a navigation link.
type LinkKind int

const (
	// LinkNone is an empty link.
	LinkNone LinkKind = iota
	// LinkInternal is a site-absolute path such as /guides/react.
	LinkInternal
	// LinkRelative is a path without a leading slash.
	LinkRelative
	// LinkExternal leaves the site: http, https or mailto.
	LinkExternal
	// LinkUnsafe uses a scheme browsers may execute, e.g. javascript:.
	LinkUnsafe
)

func (k LinkKind) String() string {
	switch k {
	case LinkNone:
		return "none"
	case LinkInternal:
		return "internal"
	case LinkRelative:
		return "relative"
	case LinkExternal:
		return "external"
	case LinkUnsafe:
		return "unsafe"
	default:
		return "unknown"
	}
}

var externalSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// ClassifyLink returns the kind of link. Protocol-relative links ("//host")
// count as external.
func ClassifyLink(link string) LinkKind {
	if link == "" {
		return LinkNone
	}
	if strings.HasPrefix(link, "//") {
		return LinkExternal
	}
	if strings.HasPrefix(link, "/") {
		return LinkInternal
	}

	scheme, ok := linkScheme(link)
	switch {
	case !ok:
		return LinkRelative
	case externalSchemes[scheme]:
		return LinkExternal
	default:
		return LinkUnsafe
	}
}

// linkScheme returns the lower-cased scheme of link, if it has one.
func linkScheme(link string) (string, bool) {
	i := strings.IndexByte(link, ':')
	if i <= 0 {
		return "", false
	}
	// A slash before the colon makes it a path, e.g. "guides/a:b".
	if strings.ContainsAny(link[:i], "/?#") {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(link[:i])), true
}

// ValidateExternalURL checks an http, https or mailto link.
func ValidateExternalURL(rawURL string) error {
	if strings.ContainsAny(rawURL, " \t\n\r") {
		return fmt.Errorf("URL contains whitespace")
	}

	if strings.HasPrefix(rawURL, "//") {
		rawURL = "https:" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("URL must have a hostname")
		}
	case "mailto":
		if parsed.Opaque == "" {
			return fmt.Errorf("mailto link has no address")
		}
	default:
		return fmt.Errorf("invalid URL scheme: %q (only http, https and mailto allowed)", parsed.Scheme)
	}
	return nil
}
