// Package repo provides the database stores for the orchestration core.
package repo

import (
	"database/sql"

	"mirrarr/internal/contracts"
)

// Store gives access to the main store repo methods.
type Store struct {
	channelStore  *ChannelStore
	downloadStore *DownloadStore
	historyStore  *HistoryStore
	settingsStore *SettingsStore
}

// InitStores injects the database into the store repos.
func InitStores(db *sql.DB) *Store {
	settings := NewSettingsStore(db)
	return &Store{
		channelStore:  &ChannelStore{DB: db},
		downloadStore: &DownloadStore{DB: db},
		historyStore:  &HistoryStore{DB: db},
		settingsStore: settings,
	}
}

// ChannelStore returns the channel store.
func (s *Store) ChannelStore() contracts.ChannelStore { return s.channelStore }

// DownloadStore returns the download store.
func (s *Store) DownloadStore() contracts.DownloadStore { return s.downloadStore }

// HistoryStore returns the download history store.
func (s *Store) HistoryStore() contracts.HistoryStore { return s.historyStore }

// SettingsStore returns the settings store.
func (s *Store) SettingsStore() contracts.SettingsStore { return s.settingsStore }
