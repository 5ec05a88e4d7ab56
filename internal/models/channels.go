// Package models holds structs for modelling data, e.g. Channel data, Download data, etc.
package models

import (
	"time"

	"mirrarr/internal/parsing"
)

// Channel is the top level model for a mirrored remote channel.
//
// Channels are created and mutated by the CRUD collaborator; the
// orchestration core reads them and updates LastCheck only.
type Channel struct {
	ID           int64     `db:"id"`
	ChannelID    string    `db:"channel_id"`
	Name         string    `db:"name"`
	URL          string    `db:"url"`
	VideoLimit   int       `db:"video_limit"`
	Enabled      bool      `db:"enabled"`
	LastCheck    time.Time `db:"last_check"`
	MediaDirName string    `db:"media_dir_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// GetLimit returns the channel's retention/discovery limit clamped to 1..100.
func (c *Channel) GetLimit() int {
	switch {
	case c.VideoLimit < 1:
		return 1
	case c.VideoLimit > 100:
		return 100
	}
	return c.VideoLimit
}

// DirName returns the channel's media directory name, deriving it when the
// stored value is blank: "{sanitized_name} [{channel_id}]".
func (c *Channel) DirName() string {
	if c.MediaDirName != "" {
		return c.MediaDirName
	}
	return parsing.SanitizeName(c.Name) + " [" + c.ChannelID + "]"
}
