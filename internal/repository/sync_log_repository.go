package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nextlog-sync-server/internal/domain"
)

// SyncLogRepository persists the upload and download job records. Each
// row walks pending -> processing -> (completed | failed) exactly
// once; a retry is a fresh row.
type SyncLogRepository interface {
	CreateUpload(ctx context.Context, l *domain.UploadLog) error
	StartUpload(ctx context.Context, id string) error
	SetUploadFile(ctx context.Context, id string, qsoCount int, fileHash string, fileSize int) error
	CompleteUpload(ctx context.Context, id string, qsoCount int, degraded bool, lotwResponse, message string) error
	FailUpload(ctx context.Context, id, errorMessage string) error
	ListUploads(ctx context.Context, userID, stationID string, limit, offset int) ([]*domain.UploadLog, error)

	CreateDownload(ctx context.Context, l *domain.DownloadLog) error
	StartDownload(ctx context.Context, id string) error
	CompleteDownload(ctx context.Context, id string, qsoCount, found, matched, unmatched int, message string) error
	FailDownload(ctx context.Context, id, errorMessage string) error
	ListDownloads(ctx context.Context, userID, stationID string, limit, offset int) ([]*domain.DownloadLog, error)

	// HasRecentRun reports whether the station has a processing or
	// completed job of the given kind younger than the window. The
	// scheduled batch jobs use it to avoid duplicate runs.
	HasRecentRun(ctx context.Context, stationID, kind string, window time.Duration) (bool, error)
}

const (
	RunKindUpload   = "upload"
	RunKindDownload = "download"
)

type syncLogRepository struct {
	db *sql.DB
}

func NewSyncLogRepository(db *sql.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) CreateUpload(ctx context.Context, l *domain.UploadLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lotw_upload_logs (id, station_id, user_id, date_from, date_to, status, upload_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.StationID, l.UserID, l.DateFrom, l.DateTo, string(l.Status), l.Method, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create upload log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) StartUpload(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lotw_upload_logs SET status = 'processing', started_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to start upload log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) SetUploadFile(ctx context.Context, id string, qsoCount int, fileHash string, fileSize int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lotw_upload_logs SET qso_count = $1, file_hash = $2, file_size_bytes = $3 WHERE id = $4`,
		qsoCount, fileHash, fileSize, id)
	if err != nil {
		return fmt.Errorf("failed to record upload file: %w", err)
	}
	return nil
}

func (r *syncLogRepository) CompleteUpload(ctx context.Context, id string, qsoCount int, degraded bool, lotwResponse, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lotw_upload_logs
		 SET status = 'completed', completed_at = NOW(), qso_count = $1,
		     degraded = $2, lotw_response = $3, error_message = $4
		 WHERE id = $5`,
		qsoCount, degraded, lotwResponse, message, id)
	if err != nil {
		return fmt.Errorf("failed to complete upload log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) FailUpload(ctx context.Context, id, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lotw_upload_logs SET status = 'failed', completed_at = NOW(), error_message = $1 WHERE id = $2`,
		errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to fail upload log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) ListUploads(ctx context.Context, userID, stationID string, limit, offset int) ([]*domain.UploadLog, error) {
	query := `SELECT id, station_id, user_id, date_from, date_to, status, upload_method,
			COALESCE(qso_count, 0), COALESCE(file_hash, ''), COALESCE(file_size_bytes, 0),
			COALESCE(degraded, false), COALESCE(lotw_response, ''), COALESCE(error_message, ''),
			started_at, completed_at, created_at
		 FROM lotw_upload_logs WHERE user_id = $1`
	args := []interface{}{userID}
	if stationID != "" {
		args = append(args, stationID)
		query += fmt.Sprintf(" AND station_id = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.UploadLog
	for rows.Next() {
		var l domain.UploadLog
		var status string
		var started, completed sql.NullTime
		var from, to sql.NullTime
		if err := rows.Scan(&l.ID, &l.StationID, &l.UserID, &from, &to, &status, &l.Method,
			&l.QSOCount, &l.FileHash, &l.FileSizeBytes, &l.Degraded, &l.LotwResponse,
			&l.ErrorMessage, &started, &completed, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload log: %w", err)
		}
		l.Status = domain.SyncStatus(status)
		l.DateFrom = nullTimePtr(from)
		l.DateTo = nullTimePtr(to)
		l.StartedAt = nullTimePtr(started)
		l.CompletedAt = nullTimePtr(completed)
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func (r *syncLogRepository) CreateDownload(ctx context.Context, l *domain.DownloadLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lotw_download_logs (id, station_id, user_id, date_from, date_to, status, download_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.StationID, l.UserID, l.DateFrom, l.DateTo, string(l.Status), l.Method, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create download log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) StartDownload(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lotw_download_logs SET status = 'processing', started_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to start download log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) CompleteDownload(ctx context.Context, id string, qsoCount, found, matched, unmatched int, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lotw_download_logs
		 SET status = 'completed', completed_at = NOW(), qso_count = $1,
		     confirmations_found = $2, confirmations_matched = $3, confirmations_unmatched = $4,
		     error_message = $5
		 WHERE id = $6`,
		qsoCount, found, matched, unmatched, message, id)
	if err != nil {
		return fmt.Errorf("failed to complete download log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) FailDownload(ctx context.Context, id, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lotw_download_logs SET status = 'failed', completed_at = NOW(), error_message = $1 WHERE id = $2`,
		errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to fail download log: %w", err)
	}
	return nil
}

func (r *syncLogRepository) ListDownloads(ctx context.Context, userID, stationID string, limit, offset int) ([]*domain.DownloadLog, error) {
	query := `SELECT id, station_id, user_id, date_from, date_to, status, download_method,
			COALESCE(qso_count, 0), COALESCE(confirmations_found, 0),
			COALESCE(confirmations_matched, 0), COALESCE(confirmations_unmatched, 0),
			COALESCE(error_message, ''), started_at, completed_at, created_at
		 FROM lotw_download_logs WHERE user_id = $1`
	args := []interface{}{userID}
	if stationID != "" {
		args = append(args, stationID)
		query += fmt.Sprintf(" AND station_id = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list download logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.DownloadLog
	for rows.Next() {
		var l domain.DownloadLog
		var status string
		var started, completed, from, to sql.NullTime
		if err := rows.Scan(&l.ID, &l.StationID, &l.UserID, &from, &to, &status, &l.Method,
			&l.QSOCount, &l.ConfirmationsFound, &l.ConfirmationsMatched, &l.Unmatched,
			&l.ErrorMessage, &started, &completed, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download log: %w", err)
		}
		l.Status = domain.SyncStatus(status)
		l.DateFrom = nullTimePtr(from)
		l.DateTo = nullTimePtr(to)
		l.StartedAt = nullTimePtr(started)
		l.CompletedAt = nullTimePtr(completed)
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func (r *syncLogRepository) HasRecentRun(ctx context.Context, stationID, kind string, window time.Duration) (bool, error) {
	table := "lotw_upload_logs"
	if kind == RunKindDownload {
		table = "lotw_download_logs"
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM `+table+`
			WHERE station_id = $1 AND started_at > NOW() - ($2 * INTERVAL '1 second')
			  AND status IN ('processing', 'completed'))`,
		stationID, int(window.Seconds())).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent runs: %w", err)
	}
	return exists, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
