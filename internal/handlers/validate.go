package handlers

import (
	"regexp"
	"strings"
	"unicode"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

const passwordSpecials = "@$!%*?&#._-"

func validateUsername(username string) string {
	if !usernamePattern.MatchString(username) {
		return "username must be 3-30 characters: letters, digits and underscore only"
	}
	return ""
}

// validatePassword enforces the registration policy: at least 8 characters
// with one lowercase, one uppercase, one digit and one special character.
func validatePassword(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	hasSpecial := strings.ContainsAny(password, passwordSpecials)
	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return "password needs a lowercase letter, an uppercase letter, a digit and a special character"
	}
	return ""
}

func validateName(name string) string {
	if name == "" {
		return ""
	}
	if length := len(strings.TrimSpace(name)); length < 1 || length > 50 {
		return "name must be 1-50 characters"
	}
	return ""
}
