// Package database implements the packdb.Store interface on SQLite.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"packdb/internal/database/migrations"
	"packdb/internal/model"
	"packdb/internal/packdb"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements packdb.Store using SQLite. Every mutating
// method commits before returning; lookups report a miss as (nil, nil).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at the given path and
// migrates it to the latest schema. path can be ":memory:" for an
// in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens a SQLite handle with the PRAGMAs the store
// relies on. Foreign keys back the tree's referential integrity;
// case_sensitive_like keeps pack searches case-sensitive (SQLite's
// LIKE is case-insensitive for ASCII by default). Both are set through
// DSN options so every pooled connection gets them.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path + "?_foreign_keys=on&_case_sensitive_like=on"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on&_case_sensitive_like=on"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string { return s.path }

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Server records

func (s *SQLiteStore) InsertServer(ctx context.Context, server *model.Server) error {
	if server.ID == "" {
		server.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO servers (id, host, port, nick, user_name, real_name, auth, user_password, password)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		server.ID, server.Host, server.Port, server.Nick, server.User, server.Real,
		server.Auth.String(), nullable(server.UserPassword), nullable(server.Password))
	if err != nil {
		return fmt.Errorf("inserting server: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindServerByHost(ctx context.Context, host string) (*model.Server, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, host, port, nick, user_name, real_name, auth, user_password, password
		 FROM servers WHERE host = ?`, host)
	server, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding server by host: %w", err)
	}
	return server, nil
}

func (s *SQLiteStore) ListServers(ctx context.Context) ([]*model.Server, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, host, port, nick, user_name, real_name, auth, user_password, password
		 FROM servers ORDER BY host`)
	if err != nil {
		return nil, fmt.Errorf("listing servers: %w", err)
	}
	defer rows.Close()

	var servers []*model.Server
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("listing servers: %w", err)
		}
		servers = append(servers, server)
	}
	return servers, rows.Err()
}

func (s *SQLiteStore) UpdateServer(ctx context.Context, server *model.Server) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE servers SET port = ?, nick = ?, user_name = ?, real_name = ?, auth = ?, user_password = ?, password = ?
		 WHERE id = ?`,
		server.Port, server.Nick, server.User, server.Real, server.Auth.String(),
		nullable(server.UserPassword), nullable(server.Password), server.ID)
	if err != nil {
		return fmt.Errorf("updating server: %w", err)
	}
	return nil
}

// DeleteServerTree purges a server and every descendant record in one
// transaction, children first.
func (s *SQLiteStore) DeleteServerTree(ctx context.Context, serverID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		stmt string
		arg  string
	}{
		{`DELETE FROM packs WHERE bot_id IN (
			SELECT b.id FROM bots b
			JOIN channels c ON b.channel_id = c.id
			WHERE c.server_id = ?)`, serverID},
		{`DELETE FROM bots WHERE channel_id IN (
			SELECT id FROM channels WHERE server_id = ?)`, serverID},
		{`DELETE FROM channels WHERE server_id = ?`, serverID},
		{`DELETE FROM servers WHERE id = ?`, serverID},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.stmt, step.arg); err != nil {
			return fmt.Errorf("deleting server tree: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing server tree delete: %w", err)
	}
	return nil
}

// Channel records

func (s *SQLiteStore) InsertChannel(ctx context.Context, channel *model.Channel) error {
	if channel.ID == "" {
		channel.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (id, server_id, name, password) VALUES (?, ?, ?, ?)`,
		channel.ID, channel.ServerID, channel.Name, nullable(channel.Password))
	if err != nil {
		return fmt.Errorf("inserting channel: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindChannelByName(ctx context.Context, serverID, name string) (*model.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, server_id, name, password FROM channels WHERE server_id = ? AND name = ?`,
		serverID, name)
	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding channel by name: %w", err)
	}
	return channel, nil
}

func (s *SQLiteStore) ListChannels(ctx context.Context, serverID string) ([]*model.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, server_id, name, password FROM channels WHERE server_id = ? ORDER BY name`,
		serverID)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("listing channels: %w", err)
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func (s *SQLiteStore) UpdateChannel(ctx context.Context, channel *model.Channel) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET server_id = ?, name = ?, password = ? WHERE id = ?`,
		channel.ServerID, channel.Name, nullable(channel.Password), channel.ID)
	if err != nil {
		return fmt.Errorf("updating channel: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteChannelTree(ctx context.Context, channelID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM packs WHERE bot_id IN (SELECT id FROM bots WHERE channel_id = ?)`,
		`DELETE FROM bots WHERE channel_id = ?`,
		`DELETE FROM channels WHERE id = ?`,
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt, channelID); err != nil {
			return fmt.Errorf("deleting channel tree: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing channel tree delete: %w", err)
	}
	return nil
}

// Bot records

func (s *SQLiteStore) InsertBot(ctx context.Context, bot *model.Bot) error {
	if bot.ID == "" {
		bot.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bots (id, channel_id, name, list_enabled) VALUES (?, ?, ?, ?)`,
		bot.ID, bot.ChannelID, bot.Name, bot.ListEnabled)
	if err != nil {
		return fmt.Errorf("inserting bot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindBotByName(ctx context.Context, channelID, name string) (*model.Bot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, name, list_enabled FROM bots WHERE channel_id = ? AND name = ?`,
		channelID, name)
	bot := &model.Bot{}
	err := row.Scan(&bot.ID, &bot.ChannelID, &bot.Name, &bot.ListEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding bot by name: %w", err)
	}
	return bot, nil
}

func (s *SQLiteStore) ListBots(ctx context.Context, channelID string) ([]*model.Bot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, name, list_enabled FROM bots WHERE channel_id = ? ORDER BY name`,
		channelID)
	if err != nil {
		return nil, fmt.Errorf("listing bots: %w", err)
	}
	defer rows.Close()

	var bots []*model.Bot
	for rows.Next() {
		bot := &model.Bot{}
		if err := rows.Scan(&bot.ID, &bot.ChannelID, &bot.Name, &bot.ListEnabled); err != nil {
			return nil, fmt.Errorf("listing bots: %w", err)
		}
		bots = append(bots, bot)
	}
	return bots, rows.Err()
}

func (s *SQLiteStore) UpdateBot(ctx context.Context, bot *model.Bot) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bots SET channel_id = ?, name = ?, list_enabled = ? WHERE id = ?`,
		bot.ChannelID, bot.Name, bot.ListEnabled, bot.ID)
	if err != nil {
		return fmt.Errorf("updating bot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteBotTree(ctx context.Context, botID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM packs WHERE bot_id = ?`, botID); err != nil {
		return fmt.Errorf("deleting bot packs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bots WHERE id = ?`, botID); err != nil {
		return fmt.Errorf("deleting bot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bot tree delete: %w", err)
	}
	return nil
}

// Pack records

func (s *SQLiteStore) InsertPack(ctx context.Context, pack *model.Pack) error {
	if pack.ID == "" {
		pack.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO packs (id, bot_id, number, file, size) VALUES (?, ?, ?, ?, ?)`,
		pack.ID, pack.BotID, pack.Number, pack.File, pack.Size)
	if err != nil {
		return fmt.Errorf("inserting pack: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindPackByNumber(ctx context.Context, botID string, number int) (*model.Pack, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, bot_id, number, file, size FROM packs WHERE bot_id = ? AND number = ?`,
		botID, number)
	pack := &model.Pack{}
	err := row.Scan(&pack.ID, &pack.BotID, &pack.Number, &pack.File, &pack.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding pack by number: %w", err)
	}
	return pack, nil
}

func (s *SQLiteStore) ListPacks(ctx context.Context, botID string) ([]*model.Pack, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bot_id, number, file, size FROM packs WHERE bot_id = ? ORDER BY number`,
		botID)
	if err != nil {
		return nil, fmt.Errorf("listing packs: %w", err)
	}
	defer rows.Close()

	var packs []*model.Pack
	for rows.Next() {
		pack := &model.Pack{}
		if err := rows.Scan(&pack.ID, &pack.BotID, &pack.Number, &pack.File, &pack.Size); err != nil {
			return nil, fmt.Errorf("listing packs: %w", err)
		}
		packs = append(packs, pack)
	}
	return packs, rows.Err()
}

func (s *SQLiteStore) UpdatePack(ctx context.Context, pack *model.Pack) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE packs SET bot_id = ?, number = ?, file = ?, size = ? WHERE id = ?`,
		pack.BotID, pack.Number, pack.File, pack.Size, pack.ID)
	if err != nil {
		return fmt.Errorf("updating pack: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeletePack(ctx context.Context, packID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM packs WHERE id = ?`, packID)
	if err != nil {
		return fmt.Errorf("deleting pack: %w", err)
	}
	return nil
}

// SearchPacks matches q.Term as a case-sensitive substring of pack
// file names, scoped by the non-empty fields of q. The caller's
// validation guarantees q.Term carries no '%' wildcard.
func (s *SQLiteStore) SearchPacks(ctx context.Context, q packdb.PackQuery) ([]*model.PackMatch, error) {
	query := `SELECT s.host, c.name, b.name, p.number, p.file, p.size
		FROM packs p
		JOIN bots b ON p.bot_id = b.id
		JOIN channels c ON b.channel_id = c.id
		JOIN servers s ON c.server_id = s.id
		WHERE p.file LIKE ? ESCAPE '\'`
	args := []any{"%" + escapeLike(q.Term) + "%"}

	if q.Host != "" {
		query += ` AND s.host = ?`
		args = append(args, q.Host)
	}
	if q.Channel != "" {
		query += ` AND c.name = ?`
		args = append(args, q.Channel)
	}
	if q.Bot != "" {
		query += ` AND b.name = ?`
		args = append(args, q.Bot)
	}
	query += ` ORDER BY s.host, c.name, b.name, p.number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching packs: %w", err)
	}
	defer rows.Close()

	matches := []*model.PackMatch{}
	for rows.Next() {
		m := &model.PackMatch{}
		if err := rows.Scan(&m.Host, &m.Channel, &m.Bot, &m.Number, &m.File, &m.Size); err != nil {
			return nil, fmt.Errorf("searching packs: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// escapeLike escapes LIKE metacharacters in a literal search term.
// '%' never appears (validation rejects it) but '_' is a legal file
// name character.
func escapeLike(term string) string {
	var out []byte
	for i := 0; i < len(term); i++ {
		switch term[i] {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, term[i])
	}
	return string(out)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanServer(row rowScanner) (*model.Server, error) {
	server := &model.Server{}
	var auth string
	var userPassword, password sql.NullString
	err := row.Scan(&server.ID, &server.Host, &server.Port, &server.Nick,
		&server.User, &server.Real, &auth, &userPassword, &password)
	if err != nil {
		return nil, err
	}
	if server.Auth, err = model.ParseAuthMode(auth); err != nil {
		return nil, err
	}
	server.UserPassword = userPassword.String
	server.Password = password.String
	return server, nil
}

func scanChannel(row rowScanner) (*model.Channel, error) {
	channel := &model.Channel{}
	var password sql.NullString
	if err := row.Scan(&channel.ID, &channel.ServerID, &channel.Name, &password); err != nil {
		return nil, err
	}
	channel.Password = password.String
	return channel, nil
}

// nullable maps the empty string to NULL, so "no password" round-trips
// as absent rather than as an empty value.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Compile-time check that SQLiteStore implements packdb.Store.
var _ packdb.Store = (*SQLiteStore)(nil)
