package packdb

import (
	"context"

	"packdb/internal/model"
)

// PackQuery scopes a substring search over pack file names. Empty
// scope fields leave that level unrestricted; Term is matched
// case-sensitively as a containment test.
type PackQuery struct {
	Host    string
	Channel string
	Bot     string
	Term    string
}

// Store is the persistence layer beneath the controller: plain record
// CRUD plus the scoped pack search. Implementations must make each
// mutating call atomic (committed when the call returns) and report
// missing records as nil results, not errors. Find/List methods return
// bare records without children; eager tree loading is composed by the
// controller.
type Store interface {
	// Server records

	InsertServer(ctx context.Context, server *model.Server) error
	FindServerByHost(ctx context.Context, host string) (*model.Server, error)
	ListServers(ctx context.Context) ([]*model.Server, error)
	UpdateServer(ctx context.Context, server *model.Server) error
	// DeleteServerTree removes the server row and every descendant
	// channel, bot and pack in one transaction, children first.
	DeleteServerTree(ctx context.Context, serverID string) error

	// Channel records

	InsertChannel(ctx context.Context, channel *model.Channel) error
	FindChannelByName(ctx context.Context, serverID, name string) (*model.Channel, error)
	ListChannels(ctx context.Context, serverID string) ([]*model.Channel, error)
	UpdateChannel(ctx context.Context, channel *model.Channel) error
	DeleteChannelTree(ctx context.Context, channelID string) error

	// Bot records

	InsertBot(ctx context.Context, bot *model.Bot) error
	FindBotByName(ctx context.Context, channelID, name string) (*model.Bot, error)
	ListBots(ctx context.Context, channelID string) ([]*model.Bot, error)
	UpdateBot(ctx context.Context, bot *model.Bot) error
	DeleteBotTree(ctx context.Context, botID string) error

	// Pack records

	InsertPack(ctx context.Context, pack *model.Pack) error
	FindPackByNumber(ctx context.Context, botID string, number int) (*model.Pack, error)
	ListPacks(ctx context.Context, botID string) ([]*model.Pack, error)
	UpdatePack(ctx context.Context, pack *model.Pack) error
	DeletePack(ctx context.Context, packID string) error

	// SearchPacks returns every pack whose file name contains q.Term,
	// restricted to the scope in q. A miss is an empty slice.
	SearchPacks(ctx context.Context, q PackQuery) ([]*model.PackMatch, error)

	// Close releases the underlying database handle.
	Close() error
}
