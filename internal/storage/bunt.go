package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/buntdb"
)

const userKeyPrefix = "user:"

// BuntStore keeps preferences as JSON values in BuntDB.
type BuntStore struct {
	db *buntdb.DB
}

// NewBuntStore opens path, or an in-memory database for ":memory:".
func NewBuntStore(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy:           buntdb.EverySecond,
		AutoShrinkPercentage: 100,
		AutoShrinkMinSize:    32 * 1024 * 1024,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	return &BuntStore{db: db}, nil
}

func (b *BuntStore) Get(_ context.Context, userID string) (UserPreferences, error) {
	var raw string
	err := b.db.View(func(tx *buntdb.Tx) error {
		var err error
		raw, err = tx.Get(userKeyPrefix + userID)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return UserPreferences{}, fmt.Errorf("failed to load preferences for %s: %w", userID, err)
	}

	var prefs UserPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return UserPreferences{}, fmt.Errorf("failed to unmarshal preferences for %s: %w", userID, err)
	}
	return normalize(prefs), nil
}

func (b *BuntStore) Put(_ context.Context, userID string, prefs UserPreferences) error {
	content, err := json.Marshal(normalize(prefs))
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(userKeyPrefix+userID, string(content), nil); err != nil {
			return fmt.Errorf("failed to store preferences for %s: %w", userID, err)
		}
		return nil
	})
}

func (b *BuntStore) Close() error {
	return b.db.Close()
}
