package validate

import (
	"errors"
	"strings"
	"testing"

	"packdb/internal/model"
)

func TestHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		want    string
		wantErr bool
	}{
		{name: "plain host", host: "irc.example.net", want: "irc.example.net"},
		{name: "uppercase is lowered", host: "IRC.Example.NET", want: "irc.example.net"},
		{name: "whitespace is trimmed", host: "  irc.example.net \t", want: "irc.example.net"},
		{name: "empty", host: "", wantErr: true},
		{name: "only whitespace", host: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Host(tt.host)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Host(%q) expected error", tt.host)
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Host(%q) error = %v, want ErrInvalid", tt.host, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Host(%q) error = %v", tt.host, err)
			}
			if got != tt.want {
				t.Errorf("Host(%q) = %q, want %q", tt.host, got, tt.want)
			}
		})
	}
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		wantErr bool
	}{
		{name: "hash prefix", channel: "#music"},
		{name: "ampersand prefix", channel: "&local"},
		{name: "underscore and dash", channel: "#my_chan-two"},
		{name: "max length", channel: "#" + strings.Repeat("a", 32)},
		{name: "too long", channel: "#" + strings.Repeat("a", 33), wantErr: true},
		{name: "no prefix", channel: "music", wantErr: true},
		{name: "digits rejected", channel: "#chan1", wantErr: true},
		{name: "spaces rejected", channel: "#my chan", wantErr: true},
		{name: "empty", channel: "", wantErr: true},
		{name: "prefix only", channel: "#", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ChannelName(tt.channel)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ChannelName(%q) expected error", tt.channel)
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("ChannelName(%q) error = %v, want ErrInvalid", tt.channel, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ChannelName(%q) error = %v", tt.channel, err)
			}
		})
	}
}

func TestNickname(t *testing.T) {
	tests := []struct {
		name    string
		nick    string
		wantErr bool
	}{
		{name: "simple", nick: "somebot"},
		{name: "pipe and underscore", nick: "some|bot_x"},
		{name: "dash", nick: "some-bot"},
		{name: "max length", nick: strings.Repeat("n", 32)},
		{name: "too long", nick: strings.Repeat("n", 33), wantErr: true},
		{name: "digits rejected", nick: "bot7", wantErr: true},
		{name: "hash rejected", nick: "#bot", wantErr: true},
		{name: "empty", nick: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Nickname(tt.nick)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Nickname(%q) expected error", tt.nick)
				}
				return
			}
			if err != nil {
				t.Errorf("Nickname(%q) error = %v", tt.nick, err)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	if err := FileName("Some.File-2024.tar.gz"); err != nil {
		t.Errorf("FileName() error = %v", err)
	}
	if err := FileName(""); err == nil {
		t.Error("FileName(\"\") expected error")
	}
	if err := FileName("   "); err == nil {
		t.Error("FileName(blank) expected error")
	}
}

func TestSearchTerm(t *testing.T) {
	if err := SearchTerm("linux"); err != nil {
		t.Errorf("SearchTerm() error = %v", err)
	}
	if err := SearchTerm("under_score"); err != nil {
		t.Errorf("SearchTerm() error = %v", err)
	}
	if err := SearchTerm(""); err == nil {
		t.Error("SearchTerm(\"\") expected error")
	}
	if err := SearchTerm("50%off"); err == nil {
		t.Error("SearchTerm with '%' expected error")
	}
}

func TestAuthPassword(t *testing.T) {
	tests := []struct {
		name     string
		auth     model.AuthMode
		password string
		wantErr  bool
	}{
		{name: "none without password", auth: model.AuthNone, password: ""},
		{name: "none with password", auth: model.AuthNone, password: "secret"},
		{name: "nickserv with password", auth: model.AuthNickServ, password: "secret"},
		{name: "nickserv without password", auth: model.AuthNickServ, password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthPassword(tt.auth, tt.password)
			if tt.wantErr {
				if err == nil {
					t.Fatal("AuthPassword() expected error")
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("AuthPassword() error = %v, want ErrInvalid", err)
				}
				return
			}
			if err != nil {
				t.Errorf("AuthPassword() error = %v", err)
			}
		})
	}
}
