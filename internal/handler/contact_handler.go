package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/internal/middleware"
	"nextlog-sync-server/internal/service"
	"nextlog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type ContactHandler struct {
	service  *service.ContactService
	validate *validator.Validate
}

func NewContactHandler(service *service.ContactService) *ContactHandler {
	return &ContactHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	contact, err := h.service.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Created(w, contact)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station_id")
	if stationID == "" {
		response.BadRequest(w, "station_id query parameter is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	contacts, err := h.service.List(r.Context(), middleware.GetUserID(r), stationID, limit, offset)
	if err != nil {
		response.NotFound(w, err.Error())
		return
	}

	response.Success(w, contacts)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	contactID := mux.Vars(r)["id"]
	if contactID == "" {
		response.BadRequest(w, "Contact ID is required")
		return
	}

	contact, err := h.service.Get(r.Context(), middleware.GetUserID(r), contactID)
	if err != nil {
		response.NotFound(w, "Contact not found")
		return
	}

	response.Success(w, contact)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	contactID := mux.Vars(r)["id"]
	if contactID == "" {
		response.BadRequest(w, "Contact ID is required")
		return
	}

	var req domain.UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	contact, err := h.service.Update(r.Context(), middleware.GetUserID(r), contactID, &req)
	if err != nil {
		response.NotFound(w, "Contact not found")
		return
	}

	response.Success(w, contact)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contactID := mux.Vars(r)["id"]
	if contactID == "" {
		response.BadRequest(w, "Contact ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r), contactID); err != nil {
		response.NotFound(w, "Contact not found")
		return
	}

	response.Success(w, map[string]string{
		"message": "Contact deleted",
	})
}
