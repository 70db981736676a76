package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/chatweb/chatweb-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	avatar        TEXT NOT NULL DEFAULT '',
	date_of_birth DATETIME NOT NULL,
	is_online     BOOLEAN NOT NULL DEFAULT 0,
	last_seen     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id    INTEGER NOT NULL,
	receiver_id  INTEGER NOT NULL,
	content      TEXT NOT NULL,
	message_type TEXT NOT NULL DEFAULT 'text',
	is_read      BOOLEAN NOT NULL DEFAULT 0,
	read_at      DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (receiver_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_pair
	ON messages (sender_id, receiver_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_unread
	ON messages (receiver_id, is_read);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser inserts a new account.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *store.User) (*store.User, error) {
	query := `
		INSERT INTO users (email, name, password_hash, avatar, date_of_birth)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		u.Email, u.Name, u.PasswordHash, u.Avatar, u.DateOfBirth)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	query := `
		SELECT id, email, name, password_hash, avatar, date_of_birth,
		       is_online, last_seen, created_at
		FROM users
		WHERE ` + where

	var user store.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Avatar,
		&user.DateOfBirth,
		&user.IsOnline,
		&user.LastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// SearchUsers finds users whose name or email contains the query.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string, limit int) ([]*store.User, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, password_hash, avatar, date_of_birth,
		       is_online, last_seen, created_at
		FROM users
		WHERE lower(name) LIKE ? OR lower(email) LIKE ?
		ORDER BY name
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListOnline returns users currently flagged online.
func (s *SQLiteStore) ListOnline(ctx context.Context) ([]*store.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, password_hash, avatar, date_of_birth,
		       is_online, last_seen, created_at
		FROM users
		WHERE is_online = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list online users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]*store.User, error) {
	users := make([]*store.User, 0)
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.PasswordHash,
			&user.Avatar,
			&user.DateOfBirth,
			&user.IsOnline,
			&user.LastSeen,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// SetOnline updates the online flag and last_seen timestamp.
func (s *SQLiteStore) SetOnline(ctx context.Context, userID int64, online bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_online = ?, last_seen = CURRENT_TIMESTAMP WHERE id = ?
	`, online, userID)
	if err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// CreateMessage persists a message and fills in ID and CreatedAt.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	if msg.Type == "" {
		msg.Type = store.MessageTypeText
	}
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, message_type, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, msg.SenderID, msg.ReceiverID, msg.Content, msg.Type, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getMessage(ctx, id)
}

func (s *SQLiteStore) getMessage(ctx context.Context, id int64) (*store.Message, error) {
	var msg store.Message
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sender_id, receiver_id, content, message_type, is_read, read_at, created_at
		FROM messages
		WHERE id = ?
	`, id).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.Type,
		&msg.IsRead,
		&msg.ReadAt,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &msg, nil
}

// MarkConversationRead flips is_read on unread messages from sender to receiver.
func (s *SQLiteStore) MarkConversationRead(ctx context.Context, senderID, receiverID int64, readAt time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET is_read = 1, read_at = ?
		WHERE sender_id = ? AND receiver_id = ? AND is_read = 0
	`, readAt.UTC(), senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// ListConversation returns messages between two users, newest first.
func (s *SQLiteStore) ListConversation(ctx context.Context, userA, userB int64, limit int, beforeID *int64) ([]*store.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, sender_id, receiver_id, content, message_type, is_read, read_at, created_at
		FROM messages
		WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
	`
	args := []any{userA, userB, userB, userA}
	if beforeID != nil {
		query += " AND id < ?"
		args = append(args, *beforeID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.Type,
			&msg.IsRead,
			&msg.ReadAt,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// ListConversations returns one summary per partner, most recent first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID int64) ([]*store.Conversation, error) {
	// For each partner, pick the id of the newest message in the thread
	// and count unread messages addressed to userID.
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id,
			MAX(id) AS last_id,
			SUM(CASE WHEN receiver_id = ? AND is_read = 0 THEN 1 ELSE 0 END) AS unread
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		GROUP BY partner_id
		ORDER BY last_id DESC
	`, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	type row struct {
		partnerID int64
		lastID    int64
		unread    int64
	}
	var summaries []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.partnerID, &r.lastID, &r.unread); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		summaries = append(summaries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	conversations := make([]*store.Conversation, 0, len(summaries))
	for _, r := range summaries {
		partner, err := s.GetUserByID(ctx, r.partnerID)
		if err != nil {
			return nil, fmt.Errorf("load partner %d: %w", r.partnerID, err)
		}
		last, err := s.getMessage(ctx, r.lastID)
		if err != nil {
			return nil, fmt.Errorf("load last message %d: %w", r.lastID, err)
		}
		conversations = append(conversations, &store.Conversation{
			User:        partner,
			LastMessage: last,
			UnreadCount: r.unread,
		})
	}
	return conversations, nil
}
