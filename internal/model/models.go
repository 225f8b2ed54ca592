package model

// Server is an IRC server tracked in the database, together with the
// identity used to connect to it.
type Server struct {
	ID           string // UUID
	Host         string // Lower-case, trimmed; unique
	Port         int
	Nick         string
	User         string
	Real         string
	Auth         AuthMode
	UserPassword string // Empty when Auth requires none
	Password     string // Server connect password; empty for none

	Channels []*Channel // Eagerly loaded child channels
}

// Channel is a channel on a tracked server.
type Channel struct {
	ID       string // UUID
	ServerID string // Foreign key to Server
	Name     string // Unique within the parent server
	Password string // Empty for none

	Bots []*Bot // Eagerly loaded child bots
}

// Bot is an XDCC bot sitting in a channel.
type Bot struct {
	ID          string // UUID
	ChannelID   string // Foreign key to Channel
	Name        string // Unique within the parent channel
	ListEnabled bool   // Whether the bot answers pack listing requests

	Packs []*Pack // Eagerly loaded packs, ordered by number
}

// Pack is a single file offered by a bot, identified by a number
// unique within that bot.
type Pack struct {
	ID     string // UUID
	BotID  string // Foreign key to Bot
	Number int
	File   string
	Size   string // Descriptive size as announced by the bot, e.g. "1.4G"
}

// PackMatch is a search hit: a pack together with the location it was
// found at.
type PackMatch struct {
	Host    string
	Channel string
	Bot     string
	Number  int
	File    string
	Size    string
}
