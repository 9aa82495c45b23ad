package domain

import "time"

// SyncStatus is the lifecycle of one upload or download job. Terminal
// states are final; a new attempt is a new log row.
type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncProcessing SyncStatus = "processing"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

const (
	SyncMethodManual    = "manual"
	SyncMethodAutomatic = "automatic"
)

type UploadLog struct {
	ID            string     `json:"id"`
	StationID     string     `json:"station_id"`
	UserID        string     `json:"user_id"`
	DateFrom      *time.Time `json:"date_from,omitempty"`
	DateTo        *time.Time `json:"date_to,omitempty"`
	Status        SyncStatus `json:"status"`
	Method        string     `json:"upload_method"`
	QSOCount      int        `json:"qso_count"`
	FileHash      string     `json:"file_hash,omitempty"`
	FileSizeBytes int        `json:"file_size_bytes,omitempty"`
	Degraded      bool       `json:"degraded"`
	LotwResponse  string     `json:"lotw_response,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type DownloadLog struct {
	ID                   string     `json:"id"`
	StationID            string     `json:"station_id"`
	UserID               string     `json:"user_id"`
	DateFrom             *time.Time `json:"date_from,omitempty"`
	DateTo               *time.Time `json:"date_to,omitempty"`
	Status               SyncStatus `json:"status"`
	Method               string     `json:"download_method"`
	QSOCount             int        `json:"qso_count"`
	ConfirmationsFound   int        `json:"confirmations_found"`
	ConfirmationsMatched int        `json:"confirmations_matched"`
	Unmatched            int        `json:"confirmations_unmatched"`
	ErrorMessage         string     `json:"error_message,omitempty"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

type SyncRequest struct {
	StationID string     `json:"station_id" validate:"required,uuid4"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
}

type UploadResult struct {
	Success      bool   `json:"success"`
	UploadLogID  string `json:"upload_log_id"`
	QSOCount     int    `json:"qso_count"`
	Degraded     bool   `json:"degraded"`
	LotwResponse string `json:"lotw_response,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type DownloadResult struct {
	Success              bool   `json:"success"`
	DownloadLogID        string `json:"download_log_id"`
	ConfirmationsFound   int    `json:"confirmations_found"`
	ConfirmationsMatched int    `json:"confirmations_matched"`
	Unmatched            int    `json:"confirmations_unmatched"`
	ErrorMessage         string `json:"error_message,omitempty"`
}

// BatchResult is one station's outcome inside a scheduled batch run.
type BatchResult struct {
	StationID string `json:"station_id"`
	Callsign  string `json:"callsign"`
	Status    string `json:"status"` // success, error, skipped
	Reason    string `json:"reason,omitempty"`
	QSOCount  int    `json:"qso_count,omitempty"`
	Error     string `json:"error,omitempty"`
}
