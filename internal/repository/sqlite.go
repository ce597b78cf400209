package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"echobot/config"
	"echobot/types"

	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var defaultSchema string

type SQLite struct {
	logger *zap.Logger
	conn   *sql.DB
}

func NewSQLite(config *config.Config, logger *zap.Logger) (Repository, error) {
	configDb := config.Database
	db, err := sql.Open(
		"sqlite3",
		fmt.Sprintf("%s%s?_foreign_keys=on&cache=%s", configDb.Type, configDb.Address, configDb.Cache),
	)
	if err != nil {
		return nil, err
	}

	// Set the maximum number of open connections
	db.SetMaxOpenConns(configDb.MaxConn)

	// Ping to check if the database connection is established
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	repo := &SQLite{
		conn:   db,
		logger: logger,
	}

	if err := repo.migrate(configDb.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("database ready", zap.String("address", configDb.Address))
	return repo, nil
}

// migrate runs the schema file at filepath, or the bundled schema when empty.
func (s *SQLite) migrate(filepath string) error {
	schema := defaultSchema
	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return err
		}
		schema = string(data)
	}

	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

// AddMember inserts member, refreshing the name of a member already on the roster.
func (s *SQLite) AddMember(ctx context.Context, member *types.Member) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO members (member_id, chat_id, telegram_id, telegram_name, username, is_bot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, telegram_id) DO UPDATE SET
			telegram_name = excluded.telegram_name,
			username = excluded.username`,
		member.MemberID,
		member.ChatID,
		member.TelegramID,
		member.TelegramName,
		member.Username,
		member.IsBot,
		member.CreatedAt,
	)
	return err
}

func (s *SQLite) GetMember(ctx context.Context, chatID, telegramID int64) (*types.Member, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT member_id, chat_id, telegram_id, telegram_name, username, is_bot, created_at
		FROM members
		WHERE chat_id = ? AND telegram_id = ?`,
		chatID, telegramID,
	)

	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	return member, err
}

func (s *SQLite) ListMembers(ctx context.Context, chatID int64) ([]*types.Member, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT member_id, chat_id, telegram_id, telegram_name, username, is_bot, created_at
		FROM members
		WHERE chat_id = ?
		ORDER BY created_at, telegram_id`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*types.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *SQLite) RemoveMember(ctx context.Context, chatID, telegramID int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM members WHERE chat_id = ? AND telegram_id = ?`, chatID, telegramID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*types.Member, error) {
	var member types.Member
	err := row.Scan(
		&member.MemberID,
		&member.ChatID,
		&member.TelegramID,
		&member.TelegramName,
		&member.Username,
		&member.IsBot,
		&member.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}
