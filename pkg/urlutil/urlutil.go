package urlutil

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ResourceScheme prefixes an opaque reference to a locally persisted resource.
const ResourceScheme = ":/"

var resourceRefPattern = regexp.MustCompile(`^:/[0-9a-f]{32}$`)

// IsHTTPURL reports whether raw is an absolute http or https URL.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := lowerASCII(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// IsDataURI reports whether raw starts with a data: scheme, case-insensitively.
func IsDataURI(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return len(trimmed) >= 5 && lowerASCII(trimmed[:5]) == "data:"
}

// IsResourceRef reports whether raw is an opaque local resource reference.
func IsResourceRef(raw string) bool {
	return resourceRefPattern.MatchString(raw)
}

// ResourceRef builds the reference string for a resource identifier.
func ResourceRef(id string) string {
	return ResourceScheme + id
}

// Hostname returns the lowercased host of raw without port, or "" when raw
// is not parseable.
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return lowerASCII(u.Hostname())
}

// FilenameFromURL returns the unescaped last path segment of raw.
// Query and fragment are ignored. Returns "" for data URIs or bare hosts.
func FilenameFromURL(raw string) string {
	if IsDataURI(raw) {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

// lowerASCII converts ASCII characters to lowercase without allocating
// when s is already lowercase.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
