package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// SettingsStore is a typed key/value façade over the settings table.
//
// All read-modify-write callers must go through Update: it serializes on a
// per-process mutex and a database transaction so concurrent writers to the
// same key cannot lose updates.
type SettingsStore struct {
	DB *sql.DB
	mu sync.Mutex
}

// NewSettingsStore returns a settings store with injected database.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{DB: db}
}

// Get returns the value for key, or "" when the key is unset.
func (ss *SettingsStore) Get(key string) (string, error) {
	var value string
	query := squirrel.
		Select(consts.QSetValue).
		From(consts.DBSettings).
		Where(squirrel.Eq{consts.QSetKey: key}).
		RunWith(ss.DB)

	if err := query.QueryRow().Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, nil
}

// GetOrDefault returns the value for key, or def when unset/blank.
func (ss *SettingsStore) GetOrDefault(key, def string) (string, error) {
	v, err := ss.Get(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// Put sets key to value, updating updated_at atomically with the value.
func (ss *SettingsStore) Put(key, value, description string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.put(ss.DB, key, value, description)
}

// Update applies fn to the current value of key under the store mutex plus a
// database transaction. fn receives "" when the key is unset.
func (ss *SettingsStore) Update(key string, fn func(value string) (string, error)) (err error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Panic rollback failed for setting %q: %v", key, rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Rollback failed for setting %q (original error: %v): %v", key, err, rbErr)
			}
		}
	}()

	var current string
	query := squirrel.
		Select(consts.QSetValue).
		From(consts.DBSettings).
		Where(squirrel.Eq{consts.QSetKey: key}).
		RunWith(tx)

	if scanErr := query.QueryRow().Scan(&current); scanErr != nil && !errors.Is(scanErr, sql.ErrNoRows) {
		err = fmt.Errorf("failed to read setting %q: %w", key, scanErr)
		return err
	}

	updated, err := fn(current)
	if err != nil {
		return err
	}

	if err = ss.put(tx, key, updated, ""); err != nil {
		return err
	}
	return tx.Commit()
}

// runner is satisfied by *sql.DB and *sql.Tx.
type runner interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const settingsUpsertSuffix = "ON CONFLICT (key) DO UPDATE SET " +
	"value = EXCLUDED.value, updated_at = EXCLUDED.updated_at"

func (ss *SettingsStore) put(r runner, key, value, description string) error {
	now := time.Now().UTC()
	query := squirrel.
		Insert(consts.DBSettings).
		Columns(consts.QSetKey, consts.QSetValue, consts.QSetDescription, consts.QSetUpdatedAt).
		Values(key, value, description, now).
		Suffix(settingsUpsertSuffix).
		RunWith(r)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	logging.D(2, "Wrote setting %q = %q", key, value)
	return nil
}

// UpdatedAt returns the updated_at timestamp for key, or zero when unset.
func (ss *SettingsStore) UpdatedAt(key string) (time.Time, error) {
	var at time.Time
	query := squirrel.
		Select(consts.QSetUpdatedAt).
		From(consts.DBSettings).
		Where(squirrel.Eq{consts.QSetKey: key}).
		RunWith(ss.DB)

	if err := query.QueryRow().Scan(&at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read updated_at for setting %q: %w", key, err)
	}
	return at, nil
}
