package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect struct {
	driver string
	schema string
	get    string
	upsert string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `
	CREATE TABLE IF NOT EXISTS users (
		chat_id TEXT PRIMARY KEY,
		language TEXT,
		notifications INTEGER NOT NULL DEFAULT 0,
		notification_time TEXT NOT NULL DEFAULT '12:00',
		favorites TEXT NOT NULL DEFAULT '[]'
	);`,
	get: `SELECT language, notifications, notification_time, favorites FROM users WHERE chat_id = ?`,
	upsert: `
		INSERT INTO users (chat_id, language, notifications, notification_time, favorites)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			language = excluded.language,
			notifications = excluded.notifications,
			notification_time = excluded.notification_time,
			favorites = excluded.favorites`,
}

var postgresDialect = dialect{
	driver: "postgres",
	schema: `
	CREATE TABLE IF NOT EXISTS users (
		chat_id VARCHAR(64) PRIMARY KEY,
		language VARCHAR(8),
		notifications BOOLEAN NOT NULL DEFAULT FALSE,
		notification_time VARCHAR(8) NOT NULL DEFAULT '12:00',
		favorites TEXT NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);`,
	get: `SELECT language, notifications, notification_time, favorites FROM users WHERE chat_id = $1`,
	upsert: `
		INSERT INTO users (chat_id, language, notifications, notification_time, favorites, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (chat_id) DO UPDATE SET
			language = EXCLUDED.language,
			notifications = EXCLUDED.notifications,
			notification_time = EXCLUDED.notification_time,
			favorites = EXCLUDED.favorites,
			updated_at = NOW()`,
}

// SQLStore keeps preferences in a users table. Favorites are a JSON array.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteStore opens (and creates) a SQLite database file.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLStore(db, sqliteDialect)
}

// NewPostgresStore connects to PostgreSQL using a lib/pq connection string.
func NewPostgresStore(connectionString string) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return newSQLStore(db, postgresDialect)
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, userID string) (UserPreferences, error) {
	var (
		language  sql.NullString
		prefs     UserPreferences
		favorites string
	)
	err := s.db.QueryRowContext(ctx, s.dialect.get, userID).
		Scan(&language, &prefs.Notifications, &prefs.NotificationTime, &favorites)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return UserPreferences{}, fmt.Errorf("failed to load preferences for %s: %w", userID, err)
	}

	prefs.Language = language.String
	if favorites != "" {
		if err := json.Unmarshal([]byte(favorites), &prefs.Favorites); err != nil {
			return UserPreferences{}, fmt.Errorf("failed to decode favorites for %s: %w", userID, err)
		}
	}
	return normalize(prefs), nil
}

func (s *SQLStore) Put(ctx context.Context, userID string, prefs UserPreferences) error {
	prefs = normalize(prefs)
	favorites, err := json.Marshal(prefs.Favorites)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	language := sql.NullString{String: prefs.Language, Valid: prefs.Language != ""}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert,
		userID, language, prefs.Notifications, prefs.NotificationTime, string(favorites)); err != nil {
		return fmt.Errorf("failed to save preferences for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
