package model

import "fmt"

// AuthMode identifies how the client authenticates its nickname on a
// server.
type AuthMode int

const (
	// AuthNone performs no nickname authentication.
	AuthNone AuthMode = iota
	// AuthNickServ identifies against NickServ and requires a password.
	AuthNickServ
)

// PasswordRequired reports whether this mode needs a user password.
func (a AuthMode) PasswordRequired() bool {
	return a == AuthNickServ
}

func (a AuthMode) String() string {
	switch a {
	case AuthNone:
		return "none"
	case AuthNickServ:
		return "nickserv"
	default:
		return fmt.Sprintf("AuthMode(%d)", int(a))
	}
}

// ParseAuthMode converts the textual form used in the CLI and in the
// database back into an AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "none", "":
		return AuthNone, nil
	case "nickserv":
		return AuthNickServ, nil
	default:
		return AuthNone, fmt.Errorf("unknown auth mode: %q", s)
	}
}
