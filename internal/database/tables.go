package database

import (
	"database/sql"
	"fmt"
)

// initChannelsTable initializes the channels table.
func initChannelsTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS channels (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        channel_id TEXT NOT NULL UNIQUE,
        name TEXT NOT NULL,
        url TEXT NOT NULL,
        video_limit INTEGER NOT NULL DEFAULT 10 CHECK(video_limit BETWEEN 1 AND 100),
        enabled INTEGER NOT NULL DEFAULT 1,
        last_check TIMESTAMP,
        media_dir_name TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_channels_channel_id ON channels(channel_id);
    CREATE INDEX IF NOT EXISTS idx_channels_enabled ON channels(enabled);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create channels table: %w", err)
	}
	return nil
}

// initDownloadsTable initializes the downloads table.
func initDownloadsTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS downloads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        channel_id INTEGER NOT NULL REFERENCES channels(id),
        video_id TEXT NOT NULL UNIQUE,
        title TEXT,
        upload_date TEXT,
        duration INTEGER DEFAULT 0,
        file_path TEXT,
        file_size INTEGER DEFAULT 0,
        status TEXT NOT NULL CHECK(status IN ('pending', 'downloading', 'completed', 'failed')),
        error_message TEXT,
        file_exists INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        completed_at TIMESTAMP
    );
    CREATE UNIQUE INDEX IF NOT EXISTS idx_downloads_video_id ON downloads(video_id);
    CREATE INDEX IF NOT EXISTS idx_downloads_channel_status ON downloads(channel_id, status);
    CREATE INDEX IF NOT EXISTS idx_downloads_file_exists ON downloads(file_exists);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create downloads table: %w", err)
	}
	return nil
}

// initHistoryTable initializes the per-run download history table.
func initHistoryTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS download_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        channel_id INTEGER NOT NULL REFERENCES channels(id),
        run_at TIMESTAMP NOT NULL,
        found INTEGER DEFAULT 0,
        downloaded INTEGER DEFAULT 0,
        skipped INTEGER DEFAULT 0,
        failed INTEGER DEFAULT 0,
        status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'failed')),
        error_message TEXT,
        completed_at TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_history_channel ON download_history(channel_id);
    CREATE INDEX IF NOT EXISTS idx_history_run_at ON download_history(run_at);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create download_history table: %w", err)
	}
	return nil
}

// initSettingsTable initializes the settings table.
func initSettingsTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS settings (
        key TEXT NOT NULL UNIQUE,
        value TEXT NOT NULL DEFAULT '',
        description TEXT,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}
