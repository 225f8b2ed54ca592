package testutil

import (
	"fmt"
	"sync"

	"packdb/internal/model"
)

// RecordingObserver captures every notification as a compact string so
// tests can assert on event content and order. Safe for concurrent
// use.
type RecordingObserver struct {
	mu     sync.Mutex
	events []string
}

// Events returns a copy of the recorded event strings in arrival
// order.
func (r *RecordingObserver) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

// Changes returns the recorded events with the flushed markers
// stripped, for tests that only care about the substance.
func (r *RecordingObserver) Changes() []string {
	var out []string
	for _, e := range r.Events() {
		if e != "flushed" {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards all recorded events.
func (r *RecordingObserver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *RecordingObserver) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *RecordingObserver) ServerAdded(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string) {
	r.record("server-added %s:%d nick=%s user=%s real=%s auth=%s", host, port, nick, user, real, auth)
}

func (r *RecordingObserver) ChannelAdded(host, channel, password string) {
	r.record("channel-added %s %s", host, channel)
}

func (r *RecordingObserver) BotAdded(host, channel, bot string, listEnabled bool) {
	r.record("bot-added %s %s %s list=%v", host, channel, bot, listEnabled)
}

func (r *RecordingObserver) PackAdded(host, channel, bot string, number int, file, size string) {
	r.record("pack-added %s %s %s #%d %s %s", host, channel, bot, number, file, size)
}

func (r *RecordingObserver) PackUpdated(host, channel, bot string, number int, oldFile, newFile, oldSize, newSize string) {
	r.record("pack-updated %s %s %s #%d %s->%s %s->%s", host, channel, bot, number, oldFile, newFile, oldSize, newSize)
}

func (r *RecordingObserver) ServerIdentityChanged(host string, oldNick, newNick, oldUser, newUser, oldReal, newReal string, oldAuth, newAuth model.AuthMode, oldUserPassword, newUserPassword string) {
	r.record("server-identity-changed %s nick=%s->%s auth=%s->%s", host, oldNick, newNick, oldAuth, newAuth)
}

func (r *RecordingObserver) ServerPortChanged(host string, oldPort, newPort int) {
	r.record("server-port-changed %s %d->%d", host, oldPort, newPort)
}

func (r *RecordingObserver) ServerPasswordChanged(host, oldPassword, newPassword string) {
	r.record("server-password-changed %s", host)
}

func (r *RecordingObserver) ChannelPasswordChanged(host, channel, oldPassword, newPassword string) {
	r.record("channel-password-changed %s %s", host, channel)
}

func (r *RecordingObserver) BotListFlagChanged(host, channel, bot string, oldFlag, newFlag bool) {
	r.record("bot-list-flag-changed %s %s %s %v->%v", host, channel, bot, oldFlag, newFlag)
}

func (r *RecordingObserver) BotMoved(host, oldChannel, newChannel, bot string) {
	r.record("bot-moved %s %s->%s %s", host, oldChannel, newChannel, bot)
}

func (r *RecordingObserver) ServerDeleted(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string) {
	r.record("server-deleted %s:%d", host, port)
}

func (r *RecordingObserver) ChannelDeleted(host, channel, password string) {
	r.record("channel-deleted %s %s", host, channel)
}

func (r *RecordingObserver) BotDeleted(host, channel, bot string, listEnabled bool) {
	r.record("bot-deleted %s %s %s", host, channel, bot)
}

func (r *RecordingObserver) PackDeleted(host, channel, bot string, number int, file, size string) {
	r.record("pack-deleted %s %s %s #%d %s", host, channel, bot, number, file)
}

func (r *RecordingObserver) Flushed() {
	r.record("flushed")
}

func (r *RecordingObserver) Closed() {
	r.record("closed")
}
