package storage

import (
	"context"
	"fmt"
)

// DefaultNotificationTime is stored for users who never picked a time.
const DefaultNotificationTime = "12:00"

// UserPreferences is the per-user settings record. An empty Language means
// the user has not chosen one yet.
type UserPreferences struct {
	Language         string   `json:"language,omitempty"`
	Notifications    bool     `json:"notifications"`
	NotificationTime string   `json:"notification_time"`
	Favorites        []string `json:"favorites"`
}

// DefaultPreferences returns the record used for users seen for the first time.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		NotificationTime: DefaultNotificationTime,
		Favorites:        []string{},
	}
}

// PreferenceStore persists preferences keyed by user id. Get returns
// defaults for unknown users; Put is an upsert with last-write-wins.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (UserPreferences, error)
	Put(ctx context.Context, userID string, prefs UserPreferences) error
	Close() error
}

// Open creates the store for driver: "bunt", "sqlite" or "postgres".
func Open(driver, dsn string) (PreferenceStore, error) {
	switch driver {
	case "bunt", "":
		return NewBuntStore(dsn)
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver: %q (valid: bunt, sqlite, postgres)", driver)
	}
}

func normalize(prefs UserPreferences) UserPreferences {
	if prefs.NotificationTime == "" {
		prefs.NotificationTime = DefaultNotificationTime
	}
	if prefs.Favorites == nil {
		prefs.Favorites = []string{}
	}
	return prefs
}
