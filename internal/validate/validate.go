// Package validate holds the small input checks shared by handlers.
package validate

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinPasswordLength = 8
	MinNameLength     = 2
	RatingMin         = 1
	RatingMax         = 5
)

func Email(email string) bool {
	return emailRegex.MatchString(email)
}

func Password(password string) bool {
	return len(password) >= MinPasswordLength
}

func Name(name string) bool {
	return len(strings.TrimSpace(name)) >= MinNameLength
}

func Rating(rating int) bool {
	return rating >= RatingMin && rating <= RatingMax
}
