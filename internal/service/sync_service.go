package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nextlog-sync-server/internal/adif"
	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/internal/lotw"
	"nextlog-sync-server/internal/repository"
	"nextlog-sync-server/internal/websocket"
	"nextlog-sync-server/pkg/vault"
)

// Signer is the signing pipeline as the orchestrator sees it.
type Signer interface {
	Sign(ctx context.Context, adif string, cert []byte, callsign string) (*lotw.SignResult, error)
}

// Notifier pushes job state to connected clients. Nil-safe via
// notify(); the orchestrator works without one.
type Notifier interface {
	BroadcastToUser(userID string, msg *websocket.Message) error
}

// batchRunWindow guards the scheduled jobs against re-running a
// station that synced within the last hour.
const batchRunWindow = time.Hour

// SyncService coordinates the two job types. Each run is synchronous:
// one job occupies the call from pending to a terminal state, with no
// retries and no partial completion. Concurrent runs for different
// stations are safe; serializing runs for the same station is the
// caller's job.
type SyncService struct {
	contacts  repository.ContactRepository
	stations  repository.StationRepository
	creds     repository.CredentialRepository
	logs      repository.SyncLogRepository
	vault     *vault.Vault
	signer    Signer
	transport lotw.Transport
	notifier  Notifier
}

func NewSyncService(
	contacts repository.ContactRepository,
	stations repository.StationRepository,
	creds repository.CredentialRepository,
	logs repository.SyncLogRepository,
	v *vault.Vault,
	signer Signer,
	transport lotw.Transport,
	notifier Notifier,
) *SyncService {
	return &SyncService{
		contacts:  contacts,
		stations:  stations,
		creds:     creds,
		logs:      logs,
		vault:     v,
		signer:    signer,
		transport: transport,
		notifier:  notifier,
	}
}

// SyncOptions narrows a job to a date window and names how it was
// triggered.
type SyncOptions struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Method   string
}

// RunUpload executes one upload job for the station. userID "" means a
// scheduled run acting as the station owner.
func (s *SyncService) RunUpload(ctx context.Context, userID, stationID string, opts SyncOptions) (*domain.UploadResult, error) {
	station, err := s.authorizedStation(ctx, userID, stationID)
	if err != nil {
		return nil, err
	}
	ownerID := station.UserID

	cred, err := s.creds.ActiveForStation(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("no active LoTW certificate for this station, upload a certificate first")
	}

	certBytes, err := s.decryptCertificate(cred.P12Cert)
	if err != nil {
		return nil, err
	}

	if opts.Method == "" {
		opts.Method = domain.SyncMethodManual
	}

	logID := uuid.New().String()
	uploadLog := &domain.UploadLog{
		ID:        logID,
		StationID: stationID,
		UserID:    ownerID,
		DateFrom:  opts.DateFrom,
		DateTo:    opts.DateTo,
		Status:    domain.SyncPending,
		Method:    opts.Method,
		CreatedAt: time.Now(),
	}
	if err := s.logs.CreateUpload(ctx, uploadLog); err != nil {
		return nil, err
	}

	if err := s.logs.StartUpload(ctx, logID); err != nil {
		return nil, err
	}
	s.notify(ownerID, websocket.JobUpload, logID, stationID, domain.SyncProcessing, false)

	contacts, err := s.contacts.ListPendingUpload(ctx, ownerID, stationID, opts.DateFrom, opts.DateTo)
	if err != nil {
		return s.failUpload(ctx, ownerID, logID, stationID, fmt.Errorf("failed to gather contacts: %w", err))
	}

	if len(contacts) == 0 {
		msg := "no contacts found for upload"
		if err := s.logs.CompleteUpload(ctx, logID, 0, false, "", msg); err != nil {
			return nil, err
		}
		s.notify(ownerID, websocket.JobUpload, logID, stationID, domain.SyncCompleted, false)
		return &domain.UploadResult{Success: true, UploadLogID: logID, ErrorMessage: msg}, nil
	}

	payload := adif.Encode(contacts, station.Callsign)
	if err := s.logs.SetUploadFile(ctx, logID, len(contacts), adif.Hash(payload), len(payload)); err != nil {
		return s.failUpload(ctx, ownerID, logID, stationID, err)
	}

	signed, err := s.signer.Sign(ctx, payload, certBytes, station.Callsign)
	if err != nil {
		return s.failUpload(ctx, ownerID, logID, stationID, fmt.Errorf("failed to sign payload: %w", err))
	}

	var completionNote string
	if signed.Degraded {
		completionNote = "signing degraded: " + signed.Reason
		log.Printf("upload %s for %s proceeding unsigned: %s", logID, station.Callsign, signed.Reason)
	}

	lotwResponse, err := s.transport.Upload(ctx, station.Callsign, signed.Payload)
	if err != nil {
		return s.failUpload(ctx, ownerID, logID, stationID, fmt.Errorf("upload to LoTW failed: %w", err))
	}

	ids := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	if err := s.contacts.MarkUploaded(ctx, ids); err != nil {
		return s.failUpload(ctx, ownerID, logID, stationID, err)
	}

	if err := s.logs.CompleteUpload(ctx, logID, len(contacts), signed.Degraded, lotwResponse, completionNote); err != nil {
		return nil, err
	}
	s.notify(ownerID, websocket.JobUpload, logID, stationID, domain.SyncCompleted, signed.Degraded)

	return &domain.UploadResult{
		Success:      true,
		UploadLogID:  logID,
		QSOCount:     len(contacts),
		Degraded:     signed.Degraded,
		LotwResponse: lotwResponse,
	}, nil
}

// RunDownload executes one download job for the station.
func (s *SyncService) RunDownload(ctx context.Context, userID, stationID string, opts SyncOptions) (*domain.DownloadResult, error) {
	station, err := s.authorizedStation(ctx, userID, stationID)
	if err != nil {
		return nil, err
	}
	ownerID := station.UserID

	creds, err := s.stationCredentials(station)
	if err != nil {
		return nil, err
	}

	if opts.Method == "" {
		opts.Method = domain.SyncMethodManual
	}

	logID := uuid.New().String()
	downloadLog := &domain.DownloadLog{
		ID:        logID,
		StationID: stationID,
		UserID:    ownerID,
		DateFrom:  opts.DateFrom,
		DateTo:    opts.DateTo,
		Status:    domain.SyncPending,
		Method:    opts.Method,
		CreatedAt: time.Now(),
	}
	if err := s.logs.CreateDownload(ctx, downloadLog); err != nil {
		return nil, err
	}

	if err := s.logs.StartDownload(ctx, logID); err != nil {
		return nil, err
	}
	s.notify(ownerID, websocket.JobDownload, logID, stationID, domain.SyncProcessing, false)

	report, err := s.transport.Download(ctx, creds, dateParam(opts.DateFrom), dateParam(opts.DateTo))
	if err != nil {
		return s.failDownload(ctx, ownerID, logID, stationID, fmt.Errorf("download from LoTW failed: %w", err))
	}

	confirmations := adif.Decode(report)
	if len(confirmations) == 0 {
		msg := "no confirmations found in LoTW response"
		if err := s.logs.CompleteDownload(ctx, logID, 0, 0, 0, 0, msg); err != nil {
			return nil, err
		}
		s.notify(ownerID, websocket.JobDownload, logID, stationID, domain.SyncCompleted, false)
		return &domain.DownloadResult{Success: true, DownloadLogID: logID, ErrorMessage: msg}, nil
	}

	contacts, err := s.contacts.ListForWindow(ctx, ownerID, stationID, opts.DateFrom, opts.DateTo)
	if err != nil {
		return s.failDownload(ctx, ownerID, logID, stationID, err)
	}

	matches := adif.Match(confirmations, contacts)

	// First verdict wins per contact; later duplicates in the report
	// are ignored.
	applied := make(map[string]bool)
	confirmedAt := time.Now()
	for _, m := range matches {
		if applied[m.Contact.ID] {
			continue
		}
		if err := s.contacts.ApplyVerdict(ctx, m.Contact.ID, m.Verdict, confirmedAt); err != nil {
			return s.failDownload(ctx, ownerID, logID, stationID, err)
		}
		applied[m.Contact.ID] = true
	}

	matched := len(applied)
	unmatched := len(confirmations) - matched
	if unmatched < 0 {
		unmatched = 0
	}

	if err := s.logs.CompleteDownload(ctx, logID, len(contacts), len(confirmations), matched, unmatched, ""); err != nil {
		return nil, err
	}
	s.notify(ownerID, websocket.JobDownload, logID, stationID, domain.SyncCompleted, false)

	return &domain.DownloadResult{
		Success:              true,
		DownloadLogID:        logID,
		ConfirmationsFound:   len(confirmations),
		ConfirmationsMatched: matched,
		Unmatched:            unmatched,
	}, nil
}

// RunScheduledUploads walks every active LoTW-enabled station,
// skipping stations with a recent run. One station's failure never
// stops the batch.
func (s *SyncService) RunScheduledUploads(ctx context.Context) []domain.BatchResult {
	return s.runScheduled(ctx, repository.RunKindUpload)
}

func (s *SyncService) RunScheduledDownloads(ctx context.Context) []domain.BatchResult {
	return s.runScheduled(ctx, repository.RunKindDownload)
}

func (s *SyncService) runScheduled(ctx context.Context, kind string) []domain.BatchResult {
	stations, err := s.stations.ListActiveWithLotw(ctx)
	if err != nil {
		log.Printf("scheduled %s: failed to list stations: %v", kind, err)
		return nil
	}

	results := make([]domain.BatchResult, 0, len(stations))
	for _, station := range stations {
		recent, err := s.logs.HasRecentRun(ctx, station.ID, kind, batchRunWindow)
		if err != nil {
			log.Printf("scheduled %s: recent-run check failed for %s: %v", kind, station.Callsign, err)
		}
		if recent {
			log.Printf("scheduled %s: skipping %s, ran recently", kind, station.Callsign)
			results = append(results, domain.BatchResult{
				StationID: station.ID,
				Callsign:  station.Callsign,
				Status:    "skipped",
				Reason:    "ran_recently",
			})
			continue
		}

		opts := SyncOptions{Method: domain.SyncMethodAutomatic}
		switch kind {
		case repository.RunKindUpload:
			res, err := s.RunUpload(ctx, "", station.ID, opts)
			results = append(results, batchOutcome(station, err, func() int { return res.QSOCount }))
		case repository.RunKindDownload:
			res, err := s.RunDownload(ctx, "", station.ID, opts)
			results = append(results, batchOutcome(station, err, func() int { return res.ConfirmationsMatched }))
		}
	}

	return results
}

func batchOutcome(station *domain.Station, err error, count func() int) domain.BatchResult {
	result := domain.BatchResult{StationID: station.ID, Callsign: station.Callsign}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		log.Printf("scheduled sync for %s failed: %v", station.Callsign, err)
		return result
	}
	result.Status = "success"
	result.QSOCount = count()
	return result
}

// authorizedStation loads the station and, for user-initiated runs,
// checks ownership. userID "" marks a scheduled run.
func (s *SyncService) authorizedStation(ctx context.Context, userID, stationID string) (*domain.Station, error) {
	station, err := s.stations.FindByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if userID != "" && station.UserID != userID {
		return nil, fmt.Errorf("station not found or access denied")
	}
	return station, nil
}

func (s *SyncService) stationCredentials(station *domain.Station) (lotw.Credentials, error) {
	if station.LotwUsername == "" || station.LotwPassword == "" {
		return lotw.Credentials{}, fmt.Errorf("LoTW credentials not configured for this station")
	}

	password := s.vault.Decrypt(station.LotwPassword)
	if password == "" {
		return lotw.Credentials{}, fmt.Errorf("stored LoTW password is not decryptable, set it again")
	}

	return lotw.Credentials{Username: station.LotwUsername, Password: password}, nil
}

// decryptCertificate unwraps the vault-encrypted, base64-encoded
// certificate bytes.
func (s *SyncService) decryptCertificate(stored string) ([]byte, error) {
	encoded := s.vault.Decrypt(stored)
	if encoded == "" {
		return nil, fmt.Errorf("stored certificate is not decryptable, upload it again")
	}

	cert, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("stored certificate is corrupt: %w", err)
	}
	return cert, nil
}

func (s *SyncService) failUpload(ctx context.Context, ownerID, logID, stationID string, cause error) (*domain.UploadResult, error) {
	if err := s.logs.FailUpload(ctx, logID, cause.Error()); err != nil {
		log.Printf("failed to record upload failure for %s: %v", logID, err)
	}
	s.notify(ownerID, websocket.JobUpload, logID, stationID, domain.SyncFailed, false)
	return &domain.UploadResult{UploadLogID: logID, ErrorMessage: cause.Error()}, cause
}

func (s *SyncService) failDownload(ctx context.Context, ownerID, logID, stationID string, cause error) (*domain.DownloadResult, error) {
	if err := s.logs.FailDownload(ctx, logID, cause.Error()); err != nil {
		log.Printf("failed to record download failure for %s: %v", logID, err)
	}
	s.notify(ownerID, websocket.JobDownload, logID, stationID, domain.SyncFailed, false)
	return &domain.DownloadResult{DownloadLogID: logID, ErrorMessage: cause.Error()}, cause
}

func (s *SyncService) notify(userID string, jobType websocket.JobType, logID, stationID string, status domain.SyncStatus, degraded bool) {
	if s.notifier == nil {
		return
	}

	msg, err := websocket.NewSyncStatusMessage(jobType, logID, stationID, string(status), degraded)
	if err != nil {
		log.Printf("failed to build sync status message: %v", err)
		return
	}
	if err := s.notifier.BroadcastToUser(userID, msg); err != nil {
		log.Printf("failed to broadcast sync status: %v", err)
	}
}

func dateParam(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
