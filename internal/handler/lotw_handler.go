package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/internal/middleware"
	"nextlog-sync-server/internal/repository"
	"nextlog-sync-server/internal/service"
	"nextlog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type LotwHandler struct {
	syncService       *service.SyncService
	credentialService *service.CredentialService
	syncLogRepo       repository.SyncLogRepository
	validate          *validator.Validate
}

func NewLotwHandler(syncService *service.SyncService, credentialService *service.CredentialService, syncLogRepo repository.SyncLogRepository) *LotwHandler {
	return &LotwHandler{
		syncService:       syncService,
		credentialService: credentialService,
		syncLogRepo:       syncLogRepo,
		validate:          validator.New(),
	}
}

func (h *LotwHandler) UploadCertificate(w http.ResponseWriter, r *http.Request) {
	var req domain.UploadCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	cred, err := h.credentialService.UploadCertificate(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Created(w, cred)
}

func (h *LotwHandler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	stationID := mux.Vars(r)["stationId"]
	if stationID == "" {
		response.BadRequest(w, "Station ID is required")
		return
	}

	creds, err := h.credentialService.List(r.Context(), middleware.GetUserID(r), stationID)
	if err != nil {
		response.NotFound(w, err.Error())
		return
	}

	response.Success(w, creds)
}

func (h *LotwHandler) ActivateCertificate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	stationID := vars["stationId"]
	credentialID := vars["id"]
	if stationID == "" || credentialID == "" {
		response.BadRequest(w, "Station ID and certificate ID are required")
		return
	}

	if err := h.credentialService.SetActive(r.Context(), middleware.GetUserID(r), stationID, credentialID); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Success(w, map[string]string{
		"message": "Certificate activated",
	})
}

func (h *LotwHandler) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	stationID := vars["stationId"]
	credentialID := vars["id"]
	if stationID == "" || credentialID == "" {
		response.BadRequest(w, "Station ID and certificate ID are required")
		return
	}

	if err := h.credentialService.Delete(r.Context(), middleware.GetUserID(r), stationID, credentialID); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Success(w, map[string]string{
		"message": "Certificate deleted",
	})
}

func (h *LotwHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req domain.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.syncService.RunUpload(r.Context(), middleware.GetUserID(r), req.StationID, service.SyncOptions{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Method:   domain.SyncMethodManual,
	})
	if err != nil {
		if result != nil {
			response.JSON(w, http.StatusBadGateway, result)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.Success(w, result)
}

func (h *LotwHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req domain.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.syncService.RunDownload(r.Context(), middleware.GetUserID(r), req.StationID, service.SyncOptions{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Method:   domain.SyncMethodManual,
	})
	if err != nil {
		if result != nil {
			response.JSON(w, http.StatusBadGateway, result)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.Success(w, result)
}

func (h *LotwHandler) ListUploadLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	logs, err := h.syncLogRepo.ListUploads(r.Context(), middleware.GetUserID(r), r.URL.Query().Get("station_id"), limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to list upload logs")
		return
	}

	response.Success(w, logs)
}

func (h *LotwHandler) ListDownloadLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	logs, err := h.syncLogRepo.ListDownloads(r.Context(), middleware.GetUserID(r), r.URL.Query().Get("station_id"), limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to list download logs")
		return
	}

	response.Success(w, logs)
}

// CronUpload and CronDownload run the scheduled batch for every active
// station with LoTW configured. They are reached through the cron
// secret middleware, not a user token.
func (h *LotwHandler) CronUpload(w http.ResponseWriter, r *http.Request) {
	results := h.syncService.RunScheduledUploads(r.Context())
	response.Success(w, results)
}

func (h *LotwHandler) CronDownload(w http.ResponseWriter, r *http.Request) {
	results := h.syncService.RunScheduledDownloads(r.Context())
	response.Success(w, results)
}

func pagination(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
