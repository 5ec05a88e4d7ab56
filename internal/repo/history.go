package repo

import (
	"database/sql"
	"fmt"
	"time"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// HistoryStore records one audit row per channel-run.
type HistoryStore struct {
	DB *sql.DB
}

// BeginRun inserts a "running" history row before any channel work starts and
// returns its id. A row left in "running" state marks a crashed run.
func (hs *HistoryStore) BeginRun(channelID int64) (int64, error) {
	query := squirrel.
		Insert(consts.DBHistory).
		Columns(consts.QHistChanID, consts.QHistRunAt, consts.QHistStatus).
		Values(channelID, time.Now().UTC(), consts.HistStatusRunning).
		RunWith(hs.DB)

	result, err := query.Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to insert history row for channel %d: %w", channelID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get history row id: %w", err)
	}
	logging.D(1, "Began history row %d for channel %d", id, channelID)
	return id, nil
}

// FinishRun terminally updates a history row with the run's counters.
func (hs *HistoryStore) FinishRun(id int64, h *models.DownloadHistory) error {
	errMsg := h.ErrorMessage
	if len(errMsg) > consts.MaxErrorMessageLen {
		errMsg = errMsg[:consts.MaxErrorMessageLen]
	}

	query := squirrel.
		Update(consts.DBHistory).
		Set(consts.QHistFound, h.Found).
		Set(consts.QHistDownloaded, h.Downloaded).
		Set(consts.QHistSkipped, h.Skipped).
		Set(consts.QHistFailed, h.Failed).
		Set(consts.QHistStatus, h.Status).
		Set(consts.QHistError, errMsg).
		Set(consts.QHistCompletedAt, time.Now().UTC()).
		Where(squirrel.Eq{consts.QHistID: id}).
		RunWith(hs.DB)

	result, err := query.Exec()
	if err != nil {
		return fmt.Errorf("failed to finish history row %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no history row found with ID %d", id)
	}
	return nil
}

// GetRecentRuns returns the latest history rows for a channel, newest first.
func (hs *HistoryStore) GetRecentRuns(channelID int64, limit int) ([]*models.DownloadHistory, error) {
	if limit <= 0 {
		limit = 10
	}

	query := squirrel.
		Select(
			consts.QHistID,
			consts.QHistChanID,
			consts.QHistRunAt,
			consts.QHistFound,
			consts.QHistDownloaded,
			consts.QHistSkipped,
			consts.QHistFailed,
			consts.QHistStatus,
			consts.QHistError,
			consts.QHistCompletedAt,
		).
		From(consts.DBHistory).
		Where(squirrel.Eq{consts.QHistChanID: channelID}).
		OrderBy(consts.QHistRunAt + " DESC").
		Limit(uint64(limit)).
		RunWith(hs.DB)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query history for channel %d: %w", channelID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.E("Failed to close history rows: %v", err)
		}
	}()

	var runs []*models.DownloadHistory
	for rows.Next() {
		var (
			h           models.DownloadHistory
			errMsg      sql.NullString
			completedAt sql.NullTime
		)
		if err := rows.Scan(
			&h.ID,
			&h.ChannelID,
			&h.RunAt,
			&h.Found,
			&h.Downloaded,
			&h.Skipped,
			&h.Failed,
			&h.Status,
			&errMsg,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		h.ErrorMessage = errMsg.String
		if completedAt.Valid {
			h.CompletedAt = completedAt.Time
		}
		runs = append(runs, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return runs, nil
}
