package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateBaseURL checks that s is an absolute http(s) URL without query or fragment
func ValidateBaseURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https: %s", s)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", s)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("URL must not carry a query or fragment: %s", s)
	}
	return nil
}

// ValidateID checks that an identifier received from a caller is positive
func ValidateID(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%s must be a positive integer", name)
	}
	return nil
}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// SanitizeComment removes control characters except line breaks and tabs,
// and trims surrounding whitespace.
func SanitizeComment(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
