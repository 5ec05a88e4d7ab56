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

// DownloadStore manages per-video download rows.
type DownloadStore struct {
	DB *sql.DB
}

var downloadColumns = []string{
	consts.QDLID,
	consts.QDLChanID,
	consts.QDLVideoID,
	consts.QDLTitle,
	consts.QDLUploadDate,
	consts.QDLDuration,
	consts.QDLFilePath,
	consts.QDLFileSize,
	consts.QDLStatus,
	consts.QDLError,
	consts.QDLFileExists,
	consts.QDLCreatedAt,
	consts.QDLCompletedAt,
}

// GetByVideoID returns the download row for a globally unique video id.
func (ds *DownloadStore) GetByVideoID(videoID string) (*models.Download, bool, error) {
	query := squirrel.
		Select(downloadColumns...).
		From(consts.DBDownloads).
		Where(squirrel.Eq{consts.QDLVideoID: videoID}).
		RunWith(ds.DB)

	d, err := scanDownload(query.QueryRow())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return d, true, nil
}

const downloadsUpsertSuffix = "ON CONFLICT (video_id) DO UPDATE SET " +
	"title = EXCLUDED.title, upload_date = EXCLUDED.upload_date, " +
	"duration = EXCLUDED.duration, file_path = EXCLUDED.file_path, " +
	"file_size = EXCLUDED.file_size, status = EXCLUDED.status, " +
	"error_message = EXCLUDED.error_message, file_exists = EXCLUDED.file_exists, " +
	"completed_at = EXCLUDED.completed_at"

// Upsert inserts or replaces the row for d's video id and backfills d.ID.
func (ds *DownloadStore) Upsert(d *models.Download) error {
	if d.VideoID == "" {
		return errors.New("download has no video id")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	var completedAt any
	if !d.CompletedAt.IsZero() {
		completedAt = d.CompletedAt
	}

	query := squirrel.
		Insert(consts.DBDownloads).
		Columns(
			consts.QDLChanID,
			consts.QDLVideoID,
			consts.QDLTitle,
			consts.QDLUploadDate,
			consts.QDLDuration,
			consts.QDLFilePath,
			consts.QDLFileSize,
			consts.QDLStatus,
			consts.QDLError,
			consts.QDLFileExists,
			consts.QDLCreatedAt,
			consts.QDLCompletedAt,
		).
		Values(
			d.ChannelID,
			d.VideoID,
			d.Title,
			d.UploadDate,
			d.Duration,
			d.FilePath,
			d.FileSize,
			d.Status,
			d.ErrorMessage,
			d.FileExists,
			d.CreatedAt,
			completedAt,
		).
		Suffix(downloadsUpsertSuffix).
		RunWith(ds.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to upsert download %q: %w", d.VideoID, err)
	}

	if d.ID == 0 {
		idQuery := squirrel.
			Select(consts.QDLID).
			From(consts.DBDownloads).
			Where(squirrel.Eq{consts.QDLVideoID: d.VideoID}).
			RunWith(ds.DB)
		if err := idQuery.QueryRow().Scan(&d.ID); err != nil {
			return fmt.Errorf("failed to read back download id for %q: %w", d.VideoID, err)
		}
	}
	return nil
}

// SetStatus updates only the status column for a video id.
func (ds *DownloadStore) SetStatus(videoID string, status consts.DLStatus) error {
	query := squirrel.
		Update(consts.DBDownloads).
		Set(consts.QDLStatus, status).
		Where(squirrel.Eq{consts.QDLVideoID: videoID}).
		RunWith(ds.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to set status %q for download %q: %w", status, videoID, err)
	}
	return nil
}

// GetCompletedExisting returns completed, on-disk downloads for a channel
// ordered newest first by upload date (lexicographic on YYYYMMDD).
func (ds *DownloadStore) GetCompletedExisting(channelID int64) ([]*models.Download, error) {
	query := squirrel.
		Select(downloadColumns...).
		From(consts.DBDownloads).
		Where(squirrel.Eq{
			consts.QDLChanID:     channelID,
			consts.QDLStatus:     consts.DLStatusCompleted,
			consts.QDLFileExists: true,
		}).
		OrderBy(consts.QDLUploadDate + " DESC, " + consts.QDLID + " DESC").
		RunWith(ds.DB)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads for channel %d: %w", channelID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.E("Failed to close download rows: %v", err)
		}
	}()

	var downloads []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating download rows: %w", err)
	}
	return downloads, nil
}

// MarkFileMissing tombstones a download: the row stays for dedup history,
// but the file is recorded as gone.
func (ds *DownloadStore) MarkFileMissing(videoID string) error {
	query := squirrel.
		Update(consts.DBDownloads).
		Set(consts.QDLFileExists, false).
		Where(squirrel.Eq{consts.QDLVideoID: videoID}).
		RunWith(ds.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to tombstone download %q: %w", videoID, err)
	}
	return nil
}

// DemoteInterrupted fails any rows stuck in "downloading". Called once at
// startup: a process killed mid-download leaves such rows behind, and the
// dedup resolver resurrects them on the next sweep.
func (ds *DownloadStore) DemoteInterrupted() (int64, error) {
	query := squirrel.
		Update(consts.DBDownloads).
		Set(consts.QDLStatus, consts.DLStatusFailed).
		Set(consts.QDLError, "interrupted by shutdown").
		Where(squirrel.Eq{consts.QDLStatus: consts.DLStatusDownloading}).
		RunWith(ds.DB)

	result, err := query.Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to demote interrupted downloads: %w", err)
	}
	return result.RowsAffected()
}

func scanDownload(r rowScanner) (*models.Download, error) {
	var (
		d           models.Download
		title       sql.NullString
		uploadDate  sql.NullString
		filePath    sql.NullString
		errMsg      sql.NullString
		completedAt sql.NullTime
	)

	if err := r.Scan(
		&d.ID,
		&d.ChannelID,
		&d.VideoID,
		&title,
		&uploadDate,
		&d.Duration,
		&filePath,
		&d.FileSize,
		&d.Status,
		&errMsg,
		&d.FileExists,
		&d.CreatedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan download row: %w", err)
	}

	d.Title = title.String
	d.UploadDate = uploadDate.String
	d.FilePath = filePath.String
	d.ErrorMessage = errMsg.String
	if completedAt.Valid {
		d.CompletedAt = completedAt.Time
	}
	return &d, nil
}
