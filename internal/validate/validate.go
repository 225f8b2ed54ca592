// Package validate holds the input sanity checks shared by the
// synchronous controller and the asynchronous wrapper. All functions are
// pure: they either return a normalized value or an error wrapping
// ErrInvalid, and never touch storage.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"packdb/internal/model"
)

// ErrInvalid is wrapped by every validation failure so callers can
// distinguish bad input from other errors with errors.Is.
var ErrInvalid = errors.New("invalid argument")

var (
	// Channel names: # or & prefix, then 1-32 name characters.
	channelPattern = regexp.MustCompile(`^[#&][A-Za-z_-]{1,32}$`)
	// Nicknames, used for both bot names and server identity nicks.
	nickPattern = regexp.MustCompile(`^[A-Za-z_|-]{1,32}$`)
)

// Host checks and normalizes a host name. Hosts are case-insensitive,
// so the returned value is trimmed and lower-cased.
func Host(host string) (string, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return "", fmt.Errorf("%w: host must not be empty", ErrInvalid)
	}
	return strings.ToLower(trimmed), nil
}

// ChannelName checks a channel name against the channel grammar.
func ChannelName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: channel name must not be empty", ErrInvalid)
	}
	if !channelPattern.MatchString(name) {
		return fmt.Errorf("%w: channel name %q must match %s", ErrInvalid, name, channelPattern)
	}
	return nil
}

// Nickname checks a nickname against the nick grammar. Server identity
// nicks and bot names share the same rules.
func Nickname(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: nickname must not be empty", ErrInvalid)
	}
	if !nickPattern.MatchString(name) {
		return fmt.Errorf("%w: nickname %q must match %s", ErrInvalid, name, nickPattern)
	}
	return nil
}

// FileName checks a pack file name. Any non-blank name is accepted.
func FileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: file name must not be empty", ErrInvalid)
	}
	return nil
}

// SearchTerm checks a pack search term. The store matches terms with a
// SQL LIKE pattern, so a raw '%' would act as an unintended wildcard
// and is rejected.
func SearchTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("%w: search term must not be empty", ErrInvalid)
	}
	if strings.Contains(term, "%") {
		return fmt.Errorf("%w: search term must not contain '%%': %q", ErrInvalid, term)
	}
	return nil
}

// AuthPassword checks an authentication mode together with its user
// password. Modes that authenticate need a non-empty password.
func AuthPassword(auth model.AuthMode, userPassword string) error {
	if auth.PasswordRequired() && userPassword == "" {
		return fmt.Errorf("%w: auth mode %s requires a user password", ErrInvalid, auth)
	}
	return nil
}
