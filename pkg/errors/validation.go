package errors

import (
	"strings"
	"unicode"
)

const maxRefLength = 2048

// ValidateSourceRef validates a data source reference before it is fetched.
//
// Accepted forms are http:// and https:// URLs, file:// URLs and plain
// filesystem paths. Any other scheme, control characters and overly long
// references are rejected.
func ValidateSourceRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return New(ErrCodeInvalidSource, "source reference cannot be empty")
	}

	if len(ref) > maxRefLength {
		return New(ErrCodeInvalidSource, "source reference too long (max %d characters)", maxRefLength)
	}

	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSource, "source reference contains control characters")
		}
	}

	if i := strings.Index(ref, "://"); i > 0 {
		switch strings.ToLower(ref[:i]) {
		case "http", "https", "file":
		default:
			return New(ErrCodeInvalidSource, "unsupported scheme %q in %s", ref[:i], ref)
		}
		if len(ref) == i+3 {
			return New(ErrCodeInvalidSource, "source reference %q has no location", ref)
		}
	}

	return nil
}

// ValidateRegionName validates a host region identifier. Region names end up
// in element ids, so only letters, digits, '-' and '_' are allowed.
func ValidateRegionName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "region name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "region name too long (max 64 characters)")
	}
	for _, r := range name {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return New(ErrCodeInvalidInput, "region name %q contains invalid character %q", name, r)
		}
	}
	return nil
}
