package packdb

import "packdb/internal/model"

// Observer receives change notifications from a Controller. Every
// callback runs after the change has been committed to storage and
// inside the controller's mutual exclusion, so callbacks must not call
// back into the controller (that would deadlock) and should return
// quickly.
//
// Deleting an entity cascades, and a deletion callback fires for every
// removed descendant, children before parents, with the explicitly
// targeted entity last.
type Observer interface {
	ServerAdded(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string)
	ChannelAdded(host, channel, password string)
	BotAdded(host, channel, bot string, listEnabled bool)
	PackAdded(host, channel, bot string, number int, file, size string)

	PackUpdated(host, channel, bot string, number int, oldFile, newFile, oldSize, newSize string)
	ServerIdentityChanged(host string, oldNick, newNick, oldUser, newUser, oldReal, newReal string, oldAuth, newAuth model.AuthMode, oldUserPassword, newUserPassword string)
	ServerPortChanged(host string, oldPort, newPort int)
	ServerPasswordChanged(host, oldPassword, newPassword string)
	ChannelPasswordChanged(host, channel, oldPassword, newPassword string)
	BotListFlagChanged(host, channel, bot string, oldFlag, newFlag bool)
	BotMoved(host, oldChannel, newChannel, bot string)

	ServerDeleted(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string)
	ChannelDeleted(host, channel, password string)
	BotDeleted(host, channel, bot string, listEnabled bool)
	PackDeleted(host, channel, bot string, number int, file, size string)

	// Flushed fires after each mutation's transaction has committed.
	Flushed()
	// Closed fires once when the controller is closed.
	Closed()
}

// NopObserver implements Observer with no-ops. Embed it to observe a
// subset of events.
type NopObserver struct{}

func (NopObserver) ServerAdded(string, int, string, string, string, model.AuthMode, string, string) {
}
func (NopObserver) ChannelAdded(string, string, string)                                     {}
func (NopObserver) BotAdded(string, string, string, bool)                                   {}
func (NopObserver) PackAdded(string, string, string, int, string, string)                   {}
func (NopObserver) PackUpdated(string, string, string, int, string, string, string, string) {}
func (NopObserver) ServerIdentityChanged(string, string, string, string, string, string, string, model.AuthMode, model.AuthMode, string, string) {
}
func (NopObserver) ServerPortChanged(string, int, int)                    {}
func (NopObserver) ServerPasswordChanged(string, string, string)          {}
func (NopObserver) ChannelPasswordChanged(string, string, string, string) {}
func (NopObserver) BotListFlagChanged(string, string, string, bool, bool) {}
func (NopObserver) BotMoved(string, string, string, string)               {}
func (NopObserver) ServerDeleted(string, int, string, string, string, model.AuthMode, string, string) {
}
func (NopObserver) ChannelDeleted(string, string, string)                   {}
func (NopObserver) BotDeleted(string, string, string, bool)                 {}
func (NopObserver) PackDeleted(string, string, string, int, string, string) {}
func (NopObserver) Flushed()                                                {}
func (NopObserver) Closed()                                                 {}
