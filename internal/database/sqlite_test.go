package database

import (
	"context"
	"testing"

	"packdb/internal/config"
	"packdb/internal/model"
	"packdb/internal/packdb"
)

func configFor(typ, dataDir string) config.DatabaseConfig {
	return config.DatabaseConfig{Type: typ, DataDir: dataDir}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// seedTree inserts a server with one channel, one bot and one pack and
// returns the inserted records.
func seedTree(t *testing.T, store *SQLiteStore) (*model.Server, *model.Channel, *model.Bot, *model.Pack) {
	t.Helper()
	ctx := context.Background()

	server := &model.Server{
		Host: "irc.example.net", Port: 6667,
		Nick: "mynick", User: "mynick", Real: "mynick",
		Auth: model.AuthNone,
	}
	if err := store.InsertServer(ctx, server); err != nil {
		t.Fatalf("InsertServer() error = %v", err)
	}

	channel := &model.Channel{ServerID: server.ID, Name: "#music"}
	if err := store.InsertChannel(ctx, channel); err != nil {
		t.Fatalf("InsertChannel() error = %v", err)
	}

	bot := &model.Bot{ChannelID: channel.ID, Name: "musicbot", ListEnabled: true}
	if err := store.InsertBot(ctx, bot); err != nil {
		t.Fatalf("InsertBot() error = %v", err)
	}

	pack := &model.Pack{BotID: bot.ID, Number: 1, File: "Album.tar", Size: "700M"}
	if err := store.InsertPack(ctx, pack); err != nil {
		t.Fatalf("InsertPack() error = %v", err)
	}

	return server, channel, bot, pack
}

func TestSQLiteStore_ServerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	server := &model.Server{
		Host: "irc.example.net", Port: 6697,
		Nick: "nick", User: "user", Real: "real",
		Auth: model.AuthNickServ, UserPassword: "nspass", Password: "srvpass",
	}
	if err := store.InsertServer(ctx, server); err != nil {
		t.Fatalf("InsertServer() error = %v", err)
	}
	if server.ID == "" {
		t.Fatal("InsertServer() did not assign an ID")
	}

	got, err := store.FindServerByHost(ctx, "irc.example.net")
	if err != nil {
		t.Fatalf("FindServerByHost() error = %v", err)
	}
	if got == nil {
		t.Fatal("FindServerByHost() = nil, want server")
	}
	if got.ID != server.ID {
		t.Errorf("ID = %q, want %q", got.ID, server.ID)
	}
	if got.Port != 6697 {
		t.Errorf("Port = %d, want 6697", got.Port)
	}
	if got.Auth != model.AuthNickServ {
		t.Errorf("Auth = %v, want AuthNickServ", got.Auth)
	}
	if got.UserPassword != "nspass" {
		t.Errorf("UserPassword = %q, want %q", got.UserPassword, "nspass")
	}
	if got.Password != "srvpass" {
		t.Errorf("Password = %q, want %q", got.Password, "srvpass")
	}
}

func TestSQLiteStore_EmptyPasswordsRoundTripAsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	server := &model.Server{Host: "h.example.net", Port: 6667, Nick: "n", User: "n", Real: "n", Auth: model.AuthNone}
	if err := store.InsertServer(ctx, server); err != nil {
		t.Fatalf("InsertServer() error = %v", err)
	}

	got, err := store.FindServerByHost(ctx, "h.example.net")
	if err != nil {
		t.Fatalf("FindServerByHost() error = %v", err)
	}
	if got.UserPassword != "" || got.Password != "" {
		t.Errorf("passwords = %q/%q, want empty", got.UserPassword, got.Password)
	}
}

func TestSQLiteStore_FindMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	server, err := store.FindServerByHost(ctx, "nowhere.example.net")
	if err != nil {
		t.Fatalf("FindServerByHost() error = %v", err)
	}
	if server != nil {
		t.Errorf("FindServerByHost() = %+v, want nil", server)
	}

	pack, err := store.FindPackByNumber(ctx, "no-such-bot", 1)
	if err != nil {
		t.Fatalf("FindPackByNumber() error = %v", err)
	}
	if pack != nil {
		t.Errorf("FindPackByNumber() = %+v, want nil", pack)
	}
}

func TestSQLiteStore_DuplicateHostFails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s1 := &model.Server{Host: "irc.example.net", Port: 6667, Nick: "n", User: "n", Real: "n", Auth: model.AuthNone}
	if err := store.InsertServer(ctx, s1); err != nil {
		t.Fatalf("InsertServer() error = %v", err)
	}

	s2 := &model.Server{Host: "irc.example.net", Port: 6697, Nick: "m", User: "m", Real: "m", Auth: model.AuthNone}
	if err := store.InsertServer(ctx, s2); err == nil {
		t.Fatal("second InsertServer() with same host expected error")
	}
}

func TestSQLiteStore_ChannelUniquePerServer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	server, channel, _, _ := seedTree(t, store)

	dup := &model.Channel{ServerID: server.ID, Name: channel.Name}
	if err := store.InsertChannel(ctx, dup); err == nil {
		t.Fatal("duplicate channel on same server expected error")
	}

	// The same name on another server is fine.
	other := &model.Server{Host: "other.example.net", Port: 6667, Nick: "n", User: "n", Real: "n", Auth: model.AuthNone}
	if err := store.InsertServer(ctx, other); err != nil {
		t.Fatalf("InsertServer() error = %v", err)
	}
	ch2 := &model.Channel{ServerID: other.ID, Name: channel.Name}
	if err := store.InsertChannel(ctx, ch2); err != nil {
		t.Errorf("InsertChannel() on other server error = %v", err)
	}
}

func TestSQLiteStore_DeleteServerTree(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	server, channel, bot, _ := seedTree(t, store)

	if err := store.DeleteServerTree(ctx, server.ID); err != nil {
		t.Fatalf("DeleteServerTree() error = %v", err)
	}

	if got, _ := store.FindServerByHost(ctx, server.Host); got != nil {
		t.Error("server still present after DeleteServerTree")
	}
	if chs, _ := store.ListChannels(ctx, server.ID); len(chs) != 0 {
		t.Errorf("channels remaining = %d, want 0", len(chs))
	}
	if bots, _ := store.ListBots(ctx, channel.ID); len(bots) != 0 {
		t.Errorf("bots remaining = %d, want 0", len(bots))
	}
	if packs, _ := store.ListPacks(ctx, bot.ID); len(packs) != 0 {
		t.Errorf("packs remaining = %d, want 0", len(packs))
	}
}

func TestSQLiteStore_DeleteBotTree(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, channel, bot, _ := seedTree(t, store)

	if err := store.DeleteBotTree(ctx, bot.ID); err != nil {
		t.Fatalf("DeleteBotTree() error = %v", err)
	}

	if got, _ := store.FindBotByName(ctx, channel.ID, bot.Name); got != nil {
		t.Error("bot still present after DeleteBotTree")
	}
	if packs, _ := store.ListPacks(ctx, bot.ID); len(packs) != 0 {
		t.Errorf("packs remaining = %d, want 0", len(packs))
	}
	// The parent channel survives.
	if got, _ := store.FindChannelByName(ctx, channel.ServerID, channel.Name); got == nil {
		t.Error("channel missing after DeleteBotTree")
	}
}

func TestSQLiteStore_SearchPacks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	server, channel, bot, _ := seedTree(t, store)

	extra := []*model.Pack{
		{BotID: bot.ID, Number: 2, File: "Linux-ISO.img", Size: "4G"},
		{BotID: bot.ID, Number: 3, File: "linux_notes.txt", Size: "2K"},
	}
	for _, p := range extra {
		if err := store.InsertPack(ctx, p); err != nil {
			t.Fatalf("InsertPack() error = %v", err)
		}
	}

	t.Run("matches substring", func(t *testing.T) {
		matches, err := store.SearchPacks(ctx, packdb.PackQuery{Term: "inux"})
		if err != nil {
			t.Fatalf("SearchPacks() error = %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("len(matches) = %d, want 2", len(matches))
		}
		if matches[0].Number != 2 || matches[1].Number != 3 {
			t.Errorf("match order = #%d, #%d, want #2, #3", matches[0].Number, matches[1].Number)
		}
	})

	t.Run("case sensitive", func(t *testing.T) {
		matches, err := store.SearchPacks(ctx, packdb.PackQuery{Term: "LINUX"})
		if err != nil {
			t.Fatalf("SearchPacks() error = %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("len(matches) = %d, want 0", len(matches))
		}
	})

	t.Run("underscore is literal", func(t *testing.T) {
		matches, err := store.SearchPacks(ctx, packdb.PackQuery{Term: "linux_"})
		if err != nil {
			t.Fatalf("SearchPacks() error = %v", err)
		}
		if len(matches) != 1 || matches[0].File != "linux_notes.txt" {
			t.Errorf("matches = %v, want only linux_notes.txt", matches)
		}
	})

	t.Run("scoped to host channel bot", func(t *testing.T) {
		matches, err := store.SearchPacks(ctx, packdb.PackQuery{
			Host: server.Host, Channel: channel.Name, Bot: bot.Name, Term: "Album",
		})
		if err != nil {
			t.Fatalf("SearchPacks() error = %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("len(matches) = %d, want 1", len(matches))
		}
		m := matches[0]
		if m.Host != server.Host || m.Channel != channel.Name || m.Bot != bot.Name {
			t.Errorf("match = %+v, want host/channel/bot of the seeded tree", m)
		}
	})

	t.Run("wrong scope yields nothing", func(t *testing.T) {
		matches, err := store.SearchPacks(ctx, packdb.PackQuery{Host: "other.example.net", Term: "Album"})
		if err != nil {
			t.Fatalf("SearchPacks() error = %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("len(matches) = %d, want 0", len(matches))
		}
	})
}

func TestSQLiteStore_UpdatePack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, bot, pack := seedTree(t, store)

	pack.File = "Album-v2.tar"
	pack.Size = "710M"
	if err := store.UpdatePack(ctx, pack); err != nil {
		t.Fatalf("UpdatePack() error = %v", err)
	}

	got, err := store.FindPackByNumber(ctx, bot.ID, pack.Number)
	if err != nil {
		t.Fatalf("FindPackByNumber() error = %v", err)
	}
	if got.File != "Album-v2.tar" || got.Size != "710M" {
		t.Errorf("pack = %q/%q, want updated values", got.File, got.Size)
	}
}

func TestSQLiteStore_ListOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, host := range []string{"zeta.example.net", "alpha.example.net"} {
		s := &model.Server{Host: host, Port: 6667, Nick: "n", User: "n", Real: "n", Auth: model.AuthNone}
		if err := store.InsertServer(ctx, s); err != nil {
			t.Fatalf("InsertServer(%q) error = %v", host, err)
		}
	}

	servers, err := store.ListServers(ctx)
	if err != nil {
		t.Fatalf("ListServers() error = %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("len(servers) = %d, want 2", len(servers))
	}
	if servers[0].Host != "alpha.example.net" {
		t.Errorf("servers[0].Host = %q, want alpha.example.net", servers[0].Host)
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := NewStoreFromConfig(configFor("memory", ""))
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		store.Close()
	})

	t.Run("sqlite requires data_dir", func(t *testing.T) {
		if _, err := NewStoreFromConfig(configFor("sqlite", "")); err == nil {
			t.Fatal("expected error for missing data_dir")
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := NewStoreFromConfig(configFor("sqlite", t.TempDir()))
		if err != nil {
			t.Fatalf("NewStoreFromConfig() error = %v", err)
		}
		store.Close()
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewStoreFromConfig(configFor("bolt", "")); err == nil {
			t.Fatal("expected error for unknown type")
		}
	})
}
