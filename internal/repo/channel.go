package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// ChannelStore reads channel rows and maintains last_check.
//
// Channel creation and mutation belongs to the CRUD collaborator; the core
// never inserts or deletes channels.
type ChannelStore struct {
	DB *sql.DB
}

var channelColumns = []string{
	consts.QChanID,
	consts.QChanChannelID,
	consts.QChanName,
	consts.QChanURL,
	consts.QChanLimit,
	consts.QChanEnabled,
	consts.QChanLastCheck,
	consts.QChanMediaDir,
	consts.QChanCreatedAt,
	consts.QChanUpdatedAt,
}

// GetEnabledChannels returns all enabled channels in stable primary-key order.
func (cs *ChannelStore) GetEnabledChannels() ([]*models.Channel, error) {
	query := squirrel.
		Select(channelColumns...).
		From(consts.DBChannels).
		Where(squirrel.Eq{consts.QChanEnabled: true}).
		OrderBy(consts.QChanID + " ASC").
		RunWith(cs.DB)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.E("Failed to close channel rows: %v", err)
		}
	}()

	var channels []*models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}
	return channels, nil
}

// GetChannelByProviderID returns the channel with the given provider id.
func (cs *ChannelStore) GetChannelByProviderID(channelID string) (*models.Channel, bool, error) {
	query := squirrel.
		Select(channelColumns...).
		From(consts.DBChannels).
		Where(squirrel.Eq{consts.QChanChannelID: channelID}).
		RunWith(cs.DB)

	rows, err := query.Query()
	if err != nil {
		return nil, false, fmt.Errorf("failed to query channel %q: %w", channelID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.E("Failed to close channel rows: %v", err)
		}
	}()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	c, err := scanChannel(rows)
	if err != nil {
		return nil, true, err
	}
	return c, true, nil
}

// UpdateLastCheck records when the channel was last swept.
func (cs *ChannelStore) UpdateLastCheck(id int64) error {
	now := time.Now().UTC()
	query := squirrel.
		Update(consts.DBChannels).
		Set(consts.QChanLastCheck, now).
		Set(consts.QChanUpdatedAt, now).
		Where(squirrel.Eq{consts.QChanID: id}).
		RunWith(cs.DB)

	result, err := query.Exec()
	if err != nil {
		return fmt.Errorf("failed to update last check time: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no channel found with ID %d", id)
	}

	logging.D(1, "Updated last check time for channel ID %d", id)
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(r rowScanner) (*models.Channel, error) {
	var (
		c         models.Channel
		lastCheck sql.NullTime
		mediaDir  sql.NullString
	)

	if err := r.Scan(
		&c.ID,
		&c.ChannelID,
		&c.Name,
		&c.URL,
		&c.VideoLimit,
		&c.Enabled,
		&lastCheck,
		&mediaDir,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan channel row: %w", err)
	}

	if lastCheck.Valid {
		c.LastCheck = lastCheck.Time
	}
	if mediaDir.Valid {
		c.MediaDirName = mediaDir.String
	}
	return &c, nil
}
