package handler

import (
	"encoding/json"
	"net/http"

	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/internal/middleware"
	"nextlog-sync-server/internal/service"
	"nextlog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type StationHandler struct {
	service  *service.StationService
	validate *validator.Validate
}

func NewStationHandler(service *service.StationService) *StationHandler {
	return &StationHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *StationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	station, err := h.service.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		response.InternalError(w, "Failed to create station")
		return
	}

	response.Created(w, station)
}

func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		response.InternalError(w, "Failed to list stations")
		return
	}

	response.Success(w, stations)
}

func (h *StationHandler) Get(w http.ResponseWriter, r *http.Request) {
	stationID := mux.Vars(r)["id"]
	if stationID == "" {
		response.BadRequest(w, "Station ID is required")
		return
	}

	station, err := h.service.Get(r.Context(), middleware.GetUserID(r), stationID)
	if err != nil {
		response.NotFound(w, "Station not found")
		return
	}

	response.Success(w, station)
}

func (h *StationHandler) Update(w http.ResponseWriter, r *http.Request) {
	stationID := mux.Vars(r)["id"]
	if stationID == "" {
		response.BadRequest(w, "Station ID is required")
		return
	}

	var req domain.UpdateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	station, err := h.service.Update(r.Context(), middleware.GetUserID(r), stationID, &req)
	if err != nil {
		response.NotFound(w, "Station not found")
		return
	}

	response.Success(w, station)
}

func (h *StationHandler) SetLotwLogin(w http.ResponseWriter, r *http.Request) {
	stationID := mux.Vars(r)["id"]
	if stationID == "" {
		response.BadRequest(w, "Station ID is required")
		return
	}

	var req domain.SetLotwLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.service.SetLotwLogin(r.Context(), middleware.GetUserID(r), stationID, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.Success(w, map[string]string{
		"message": "LoTW login saved",
	})
}

func (h *StationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	stationID := mux.Vars(r)["id"]
	if stationID == "" {
		response.BadRequest(w, "Station ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r), stationID); err != nil {
		response.NotFound(w, "Station not found")
		return
	}

	response.Success(w, map[string]string{
		"message": "Station deleted",
	})
}
