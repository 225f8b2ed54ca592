// Package packdb tracks IRC servers, their channels, the XDCC bots in
// those channels and the packs each bot offers. The Controller is the
// synchronous front door over a Store; AsyncController wraps one
// Controller with a single-worker queue for ordered, non-blocking use.
package packdb

import (
	"context"
	"fmt"
	"sync"

	"packdb/internal/model"
	"packdb/internal/validate"
)

// Controller performs all catalog reads and writes against a Store
// under one mutex, so at most one operation is active per instance at
// any time. Observer callbacks fire after each committed change, still
// under that mutex, which is what lets tests assert notification
// ordering without races.
//
// Entities returned by lookups are detached snapshots with their child
// subtree eagerly loaded. They stay readable after Close.
type Controller struct {
	mu        sync.Mutex
	store     Store
	observers []Observer
	closed    bool
	logger    Logger
}

// NewController creates a controller over the given store. A nil
// logger disables logging.
func NewController(store Store, logger Logger) *Controller {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Controller{store: store, logger: logger}
}

// AddObserver registers an observer. Registering the same observer
// twice is an error; notification order among observers is
// unspecified.
func (c *Controller) AddObserver(obs Observer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if obs == nil {
		return fmt.Errorf("%w: observer must not be nil", validate.ErrInvalid)
	}
	for _, o := range c.observers {
		if o == obs {
			return fmt.Errorf("%w: observer already registered", ErrExists)
		}
	}
	c.observers = append(c.observers, obs)
	c.logger.Debug("observer added", "count", len(c.observers))
	return nil
}

// RemoveObserver unregisters a previously added observer.
func (c *Controller) RemoveObserver(obs Observer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if obs == nil {
		return fmt.Errorf("%w: observer must not be nil", validate.ErrInvalid)
	}
	for i, o := range c.observers {
		if o == obs {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			c.logger.Debug("observer removed", "count", len(c.observers))
			return nil
		}
	}
	return fmt.Errorf("%w: observer is not registered", validate.ErrInvalid)
}

// AddServer stores a new server. User and real name default to the
// nick when empty. A host can only be added once.
func (c *Controller) AddServer(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return err
	}
	if err := validate.Nickname(nick); err != nil {
		return err
	}
	if err := validate.AuthPassword(auth, userPassword); err != nil {
		return err
	}
	if user == "" {
		user = nick
	}
	if real == "" {
		real = nick
	}

	ctx := context.Background()
	existing, err := c.store.FindServerByHost(ctx, host)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: server %q", ErrExists, host)
	}

	server := &model.Server{
		Host: host, Port: port,
		Nick: nick, User: user, Real: real,
		Auth: auth, UserPassword: userPassword, Password: password,
	}
	if err := c.store.InsertServer(ctx, server); err != nil {
		return err
	}
	c.logger.Info("server added", "host", host, "port", port, "nick", nick)
	for _, obs := range c.observers {
		obs.ServerAdded(host, port, nick, user, real, auth, userPassword, password)
	}
	c.flushed()
	return nil
}

// AddChannel stores a new channel under an already known server.
func (c *Controller) AddChannel(host, name, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return err
	}
	if err := validate.ChannelName(name); err != nil {
		return err
	}

	ctx := context.Background()
	server, err := c.store.FindServerByHost(ctx, host)
	if err != nil {
		return err
	}
	if server == nil {
		return fmt.Errorf("%w: server %q must be added before channel %q", ErrNoParent, host, name)
	}
	existing, err := c.store.FindChannelByName(ctx, server.ID, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: channel %q on %q", ErrExists, name, host)
	}

	channel := &model.Channel{ServerID: server.ID, Name: name, Password: password}
	if err := c.store.InsertChannel(ctx, channel); err != nil {
		return err
	}
	c.logger.Info("channel added", "host", host, "channel", name)
	for _, obs := range c.observers {
		obs.ChannelAdded(host, name, password)
	}
	c.flushed()
	return nil
}

// AddBot stores a new bot under an already known channel.
func (c *Controller) AddBot(host, channel, name string, listEnabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.addBotLocked(host, channel, name, listEnabled)
}

// addBotLocked is AddBot without the lock and closed check, shared
// with UpdateOrAddPack's bot introduction path.
func (c *Controller) addBotLocked(host, channel, name string, listEnabled bool) error {
	host, err := validate.Host(host)
	if err != nil {
		return err
	}
	if err := validate.ChannelName(channel); err != nil {
		return err
	}
	if err := validate.Nickname(name); err != nil {
		return err
	}

	ctx := context.Background()
	ch, err := c.findChannel(ctx, host, channel)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("%w: server %q and channel %q must be added before bot %q", ErrNoParent, host, channel, name)
	}
	existing, err := c.store.FindBotByName(ctx, ch.ID, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: bot %q in %q on %q", ErrExists, name, channel, host)
	}

	bot := &model.Bot{ChannelID: ch.ID, Name: name, ListEnabled: listEnabled}
	if err := c.store.InsertBot(ctx, bot); err != nil {
		return err
	}
	c.logger.Info("bot added", "host", host, "channel", channel, "bot", name, "list_enabled", listEnabled)
	for _, obs := range c.observers {
		obs.BotAdded(host, channel, name, listEnabled)
	}
	c.flushed()
	return nil
}

// UpdateOrAddPack overwrites the file and size of the pack with the
// given number, or creates it when the bot has no such pack yet. With
// introduceBot set, a missing bot is created first (list-disabled);
// otherwise a missing bot is an error.
func (c *Controller) UpdateOrAddPack(host, channel, bot string, number int, file, size string, introduceBot bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return err
	}
	if err := validate.ChannelName(channel); err != nil {
		return err
	}
	if err := validate.Nickname(bot); err != nil {
		return err
	}
	if err := validate.FileName(file); err != nil {
		return err
	}

	ctx := context.Background()
	b, err := c.findBot(ctx, host, channel, bot)
	if err != nil {
		return err
	}
	if b == nil && introduceBot {
		if err := c.addBotLocked(host, channel, bot, false); err != nil {
			return err
		}
		if b, err = c.findBot(ctx, host, channel, bot); err != nil {
			return err
		}
	}
	if b == nil {
		return fmt.Errorf("%w: bot %q in %q on %q", ErrNoParent, bot, channel, host)
	}

	pack, err := c.store.FindPackByNumber(ctx, b.ID, number)
	if err != nil {
		return err
	}
	if pack == nil {
		pack = &model.Pack{BotID: b.ID, Number: number, File: file, Size: size}
		if err := c.store.InsertPack(ctx, pack); err != nil {
			return err
		}
		c.logger.Info("pack added", "host", host, "channel", channel, "bot", bot, "number", number, "file", file)
		for _, obs := range c.observers {
			obs.PackAdded(host, channel, bot, number, file, size)
		}
		c.flushed()
		return nil
	}

	oldFile, oldSize := pack.File, pack.Size
	pack.File = file
	pack.Size = size
	if err := c.store.UpdatePack(ctx, pack); err != nil {
		return err
	}
	c.logger.Info("pack updated", "host", host, "channel", channel, "bot", bot, "number", number, "file", file)
	for _, obs := range c.observers {
		obs.PackUpdated(host, channel, bot, number, oldFile, file, oldSize, size)
	}
	c.flushed()
	return nil
}

// GetServer returns the server with the given host, with its full
// channel/bot/pack subtree loaded, or nil when unknown.
func (c *Controller) GetServer(host string) (*model.Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	server, err := c.store.FindServerByHost(ctx, host)
	if err != nil || server == nil {
		return nil, err
	}
	if err := c.loadServerTree(ctx, server); err != nil {
		return nil, err
	}
	return server, nil
}

// GetChannel returns the named channel with its bots and packs loaded,
// or nil when unknown.
func (c *Controller) GetChannel(host, channel string) (*model.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	ctx := context.Background()
	ch, err := c.findChannel(ctx, host, channel)
	if err != nil || ch == nil {
		return nil, err
	}
	if err := c.loadChannelTree(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// GetBot returns the named bot with its packs loaded, or nil when
// unknown.
func (c *Controller) GetBot(host, channel, bot string) (*model.Bot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	ctx := context.Background()
	b, err := c.findBot(ctx, host, channel, bot)
	if err != nil || b == nil {
		return nil, err
	}
	if b.Packs, err = c.store.ListPacks(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// GetPack returns the pack with the given number, or nil when unknown.
func (c *Controller) GetPack(host, channel, bot string, number int) (*model.Pack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	ctx := context.Background()
	b, err := c.findBot(ctx, host, channel, bot)
	if err != nil || b == nil {
		return nil, err
	}
	return c.store.FindPackByNumber(ctx, b.ID, number)
}

// GetServerList returns every tracked server with its subtree loaded.
func (c *Controller) GetServerList() ([]*model.Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	ctx := context.Background()
	servers, err := c.store.ListServers(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range servers {
		if err := c.loadServerTree(ctx, s); err != nil {
			return nil, err
		}
	}
	return servers, nil
}

// FindPack searches every tracked pack for file names containing term.
func (c *Controller) FindPack(term string) ([]*model.PackMatch, error) {
	return c.searchPacks(PackQuery{Term: term})
}

// FindPackOnServer restricts the search to one server.
func (c *Controller) FindPackOnServer(host, term string) ([]*model.PackMatch, error) {
	host, err := validate.Host(host)
	if err != nil {
		return nil, err
	}
	return c.searchPacks(PackQuery{Host: host, Term: term})
}

// FindPackInChannel restricts the search to one channel.
func (c *Controller) FindPackInChannel(host, channel, term string) ([]*model.PackMatch, error) {
	host, err := validate.Host(host)
	if err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	return c.searchPacks(PackQuery{Host: host, Channel: channel, Term: term})
}

// FindPackByBot restricts the search to one bot.
func (c *Controller) FindPackByBot(host, channel, bot, term string) ([]*model.PackMatch, error) {
	host, err := validate.Host(host)
	if err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	return c.searchPacks(PackQuery{Host: host, Channel: channel, Bot: bot, Term: term})
}

func (c *Controller) searchPacks(q PackQuery) ([]*model.PackMatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if err := validate.SearchTerm(q.Term); err != nil {
		return nil, err
	}
	matches, err := c.store.SearchPacks(context.Background(), q)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("pack search", "term", q.Term, "hits", len(matches))
	return matches, nil
}

// SetServerIdentity replaces a server's identity fields. Reports false
// when the host is unknown.
func (c *Controller) SetServerIdentity(host, nick, user, real string, auth model.AuthMode, userPassword string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	if err := validate.Nickname(nick); err != nil {
		return false, err
	}
	if err := validate.AuthPassword(auth, userPassword); err != nil {
		return false, err
	}
	if user == "" {
		user = nick
	}
	if real == "" {
		real = nick
	}

	ctx := context.Background()
	server, err := c.store.FindServerByHost(ctx, host)
	if err != nil || server == nil {
		return false, err
	}
	oldNick, oldUser, oldReal := server.Nick, server.User, server.Real
	oldAuth, oldUserPassword := server.Auth, server.UserPassword
	server.Nick, server.User, server.Real = nick, user, real
	server.Auth, server.UserPassword = auth, userPassword
	if err := c.store.UpdateServer(ctx, server); err != nil {
		return false, err
	}
	c.logger.Info("server identity changed", "host", host, "nick", nick)
	for _, obs := range c.observers {
		obs.ServerIdentityChanged(host, oldNick, nick, oldUser, user, oldReal, real, oldAuth, auth, oldUserPassword, userPassword)
	}
	c.flushed()
	return true, nil
}

// SetServerPort changes a server's port. Reports false when the host
// is unknown.
func (c *Controller) SetServerPort(host string, port int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	ctx := context.Background()
	server, err := c.store.FindServerByHost(ctx, host)
	if err != nil || server == nil {
		return false, err
	}
	oldPort := server.Port
	server.Port = port
	if err := c.store.UpdateServer(ctx, server); err != nil {
		return false, err
	}
	c.logger.Info("server port changed", "host", host, "old", oldPort, "new", port)
	for _, obs := range c.observers {
		obs.ServerPortChanged(host, oldPort, port)
	}
	c.flushed()
	return true, nil
}

// SetServerPassword changes a server's connect password. Pass the
// empty string for no password. Reports false when the host is
// unknown.
func (c *Controller) SetServerPassword(host, password string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	ctx := context.Background()
	server, err := c.store.FindServerByHost(ctx, host)
	if err != nil || server == nil {
		return false, err
	}
	oldPassword := server.Password
	server.Password = password
	if err := c.store.UpdateServer(ctx, server); err != nil {
		return false, err
	}
	c.logger.Info("server password changed", "host", host)
	for _, obs := range c.observers {
		obs.ServerPasswordChanged(host, oldPassword, password)
	}
	c.flushed()
	return true, nil
}

// SetChannelPassword changes a channel's password. Reports false when
// the channel is unknown.
func (c *Controller) SetChannelPassword(host, channel, password string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return false, err
	}
	ctx := context.Background()
	ch, err := c.findChannel(ctx, host, channel)
	if err != nil || ch == nil {
		return false, err
	}
	oldPassword := ch.Password
	ch.Password = password
	if err := c.store.UpdateChannel(ctx, ch); err != nil {
		return false, err
	}
	c.logger.Info("channel password changed", "host", host, "channel", channel)
	for _, obs := range c.observers {
		obs.ChannelPasswordChanged(host, channel, oldPassword, password)
	}
	c.flushed()
	return true, nil
}

// SetBotListEnabled changes a bot's list-enabled flag. Reports false
// when the bot is unknown.
func (c *Controller) SetBotListEnabled(host, channel, bot string, listEnabled bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return false, err
	}
	if err := validate.Nickname(bot); err != nil {
		return false, err
	}
	ctx := context.Background()
	b, err := c.findBot(ctx, host, channel, bot)
	if err != nil || b == nil {
		return false, err
	}
	oldFlag := b.ListEnabled
	b.ListEnabled = listEnabled
	if err := c.store.UpdateBot(ctx, b); err != nil {
		return false, err
	}
	c.logger.Info("bot list flag changed", "host", host, "channel", channel, "bot", bot, "enabled", listEnabled)
	for _, obs := range c.observers {
		obs.BotListFlagChanged(host, channel, bot, oldFlag, listEnabled)
	}
	c.flushed()
	return true, nil
}

// SetBotChannel moves a bot from one channel to another on the same
// server, packs included. Moving a bot onto its own channel is an
// error; a missing bot or target channel reports false.
func (c *Controller) SetBotChannel(host, oldChannel, newChannel, bot string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	if err := validate.ChannelName(oldChannel); err != nil {
		return false, err
	}
	if err := validate.ChannelName(newChannel); err != nil {
		return false, err
	}
	if err := validate.Nickname(bot); err != nil {
		return false, err
	}
	if oldChannel == newChannel {
		return false, fmt.Errorf("%w: %q", ErrSameChannel, oldChannel)
	}

	ctx := context.Background()
	b, err := c.findBot(ctx, host, oldChannel, bot)
	if err != nil || b == nil {
		return false, err
	}
	target, err := c.findChannel(ctx, host, newChannel)
	if err != nil || target == nil {
		return false, err
	}
	b.ChannelID = target.ID
	if err := c.store.UpdateBot(ctx, b); err != nil {
		return false, err
	}
	c.logger.Info("bot moved", "host", host, "bot", bot, "from", oldChannel, "to", newChannel)
	for _, obs := range c.observers {
		obs.BotMoved(host, oldChannel, newChannel, bot)
	}
	c.flushed()
	return true, nil
}

// DeleteServer removes a server and all of its channels, bots and
// packs. Reports false when the host is unknown.
func (c *Controller) DeleteServer(host string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	ctx := context.Background()
	server, err := c.store.FindServerByHost(ctx, host)
	if err != nil || server == nil {
		return false, err
	}
	if err := c.loadServerTree(ctx, server); err != nil {
		return false, err
	}
	if err := c.store.DeleteServerTree(ctx, server.ID); err != nil {
		return false, err
	}
	c.logger.Info("server deleted", "host", host, "channels", len(server.Channels))
	for _, ch := range server.Channels {
		c.notifyChannelDeleted(host, ch)
	}
	for _, obs := range c.observers {
		obs.ServerDeleted(host, server.Port, server.Nick, server.User, server.Real, server.Auth, server.UserPassword, server.Password)
	}
	c.flushed()
	return true, nil
}

// DeleteChannel removes a channel and its bots and packs. Reports
// false when the channel is unknown.
func (c *Controller) DeleteChannel(host, channel string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return false, err
	}
	ctx := context.Background()
	ch, err := c.findChannel(ctx, host, channel)
	if err != nil || ch == nil {
		return false, err
	}
	if err := c.loadChannelTree(ctx, ch); err != nil {
		return false, err
	}
	if err := c.store.DeleteChannelTree(ctx, ch.ID); err != nil {
		return false, err
	}
	c.logger.Info("channel deleted", "host", host, "channel", channel, "bots", len(ch.Bots))
	c.notifyChannelDeleted(host, ch)
	c.flushed()
	return true, nil
}

// DeleteBot removes a bot and its packs. Reports false when the bot is
// unknown.
func (c *Controller) DeleteBot(host, channel, bot string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return false, err
	}
	if err := validate.Nickname(bot); err != nil {
		return false, err
	}
	ctx := context.Background()
	b, err := c.findBot(ctx, host, channel, bot)
	if err != nil || b == nil {
		return false, err
	}
	if b.Packs, err = c.store.ListPacks(ctx, b.ID); err != nil {
		return false, err
	}
	if err := c.store.DeleteBotTree(ctx, b.ID); err != nil {
		return false, err
	}
	c.logger.Info("bot deleted", "host", host, "channel", channel, "bot", bot, "packs", len(b.Packs))
	c.notifyBotDeleted(host, channel, b)
	c.flushed()
	return true, nil
}

// DeletePack removes a single pack. Reports false when the pack is
// unknown.
func (c *Controller) DeletePack(host, channel, bot string, number int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	host, err := validate.Host(host)
	if err != nil {
		return false, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return false, err
	}
	if err := validate.Nickname(bot); err != nil {
		return false, err
	}
	ctx := context.Background()
	b, err := c.findBot(ctx, host, channel, bot)
	if err != nil || b == nil {
		return false, err
	}
	pack, err := c.store.FindPackByNumber(ctx, b.ID, number)
	if err != nil || pack == nil {
		return false, err
	}
	if err := c.store.DeletePack(ctx, pack.ID); err != nil {
		return false, err
	}
	c.logger.Info("pack deleted", "host", host, "channel", channel, "bot", bot, "number", number)
	for _, obs := range c.observers {
		obs.PackDeleted(host, channel, bot, number, pack.File, pack.Size)
	}
	c.flushed()
	return true, nil
}

// Close commits nothing further, releases the store and renders this
// controller unusable. Closing twice is an error.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.store.Close(); err != nil {
		return err
	}
	c.closed = true
	for _, obs := range c.observers {
		obs.Closed()
	}
	c.logger.Info("controller closed")
	return nil
}

// IsClosed reports whether Close has been called.
func (c *Controller) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// findChannel resolves host+name to a channel record, nil when either
// level is missing.
func (c *Controller) findChannel(ctx context.Context, host, name string) (*model.Channel, error) {
	server, err := c.store.FindServerByHost(ctx, host)
	if err != nil || server == nil {
		return nil, err
	}
	return c.store.FindChannelByName(ctx, server.ID, name)
}

// findBot resolves host+channel+name to a bot record, nil when any
// level is missing.
func (c *Controller) findBot(ctx context.Context, host, channel, name string) (*model.Bot, error) {
	ch, err := c.findChannel(ctx, host, channel)
	if err != nil || ch == nil {
		return nil, err
	}
	return c.store.FindBotByName(ctx, ch.ID, name)
}

// loadServerTree populates the channel/bot/pack subtree of a server.
func (c *Controller) loadServerTree(ctx context.Context, server *model.Server) error {
	channels, err := c.store.ListChannels(ctx, server.ID)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if err := c.loadChannelTree(ctx, ch); err != nil {
			return err
		}
	}
	server.Channels = channels
	return nil
}

// loadChannelTree populates the bot/pack subtree of a channel.
func (c *Controller) loadChannelTree(ctx context.Context, ch *model.Channel) error {
	bots, err := c.store.ListBots(ctx, ch.ID)
	if err != nil {
		return err
	}
	for _, b := range bots {
		packs, err := c.store.ListPacks(ctx, b.ID)
		if err != nil {
			return err
		}
		b.Packs = packs
	}
	ch.Bots = bots
	return nil
}

// notifyChannelDeleted fires deletion events for a removed channel
// subtree, children before the channel itself.
func (c *Controller) notifyChannelDeleted(host string, ch *model.Channel) {
	for _, b := range ch.Bots {
		c.notifyBotDeleted(host, ch.Name, b)
	}
	for _, obs := range c.observers {
		obs.ChannelDeleted(host, ch.Name, ch.Password)
	}
}

// notifyBotDeleted fires deletion events for a removed bot subtree,
// packs before the bot itself.
func (c *Controller) notifyBotDeleted(host, channel string, b *model.Bot) {
	for _, p := range b.Packs {
		for _, obs := range c.observers {
			obs.PackDeleted(host, channel, b.Name, p.Number, p.File, p.Size)
		}
	}
	for _, obs := range c.observers {
		obs.BotDeleted(host, channel, b.Name, b.ListEnabled)
	}
}

// flushed tells observers the mutation's transaction has committed.
func (c *Controller) flushed() {
	for _, obs := range c.observers {
		obs.Flushed()
	}
}
