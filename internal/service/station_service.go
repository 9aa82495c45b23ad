package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/internal/repository"
	"nextlog-sync-server/pkg/vault"
)

type StationService struct {
	stationRepo repository.StationRepository
	vault       *vault.Vault
}

func NewStationService(stationRepo repository.StationRepository, v *vault.Vault) *StationService {
	return &StationService{stationRepo: stationRepo, vault: v}
}

func (s *StationService) Create(ctx context.Context, userID string, req *domain.CreateStationRequest) (*domain.Station, error) {
	now := time.Now()
	station := &domain.Station{
		ID:          uuid.New().String(),
		UserID:      userID,
		Callsign:    req.Callsign,
		Description: req.Description,
		GridLocator: req.GridLocator,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.stationRepo.Create(ctx, station); err != nil {
		return nil, err
	}
	return station, nil
}

func (s *StationService) List(ctx context.Context, userID string) ([]*domain.Station, error) {
	return s.stationRepo.ListByUser(ctx, userID)
}

func (s *StationService) Get(ctx context.Context, userID, stationID string) (*domain.Station, error) {
	return s.ownedStation(ctx, userID, stationID)
}

func (s *StationService) Update(ctx context.Context, userID, stationID string, req *domain.UpdateStationRequest) (*domain.Station, error) {
	station, err := s.ownedStation(ctx, userID, stationID)
	if err != nil {
		return nil, err
	}

	station.Description = req.Description
	station.GridLocator = req.GridLocator
	if req.IsActive != nil {
		station.IsActive = *req.IsActive
	}

	if err := s.stationRepo.Update(ctx, station); err != nil {
		return nil, err
	}
	return station, nil
}

// SetLotwLogin stores the station's LoTW login. The password goes
// through the vault before it touches the database.
func (s *StationService) SetLotwLogin(ctx context.Context, userID, stationID string, req *domain.SetLotwLoginRequest) error {
	if _, err := s.ownedStation(ctx, userID, stationID); err != nil {
		return err
	}

	encrypted := s.vault.Encrypt(req.Password)
	if encrypted == "" {
		return fmt.Errorf("failed to encrypt password")
	}

	return s.stationRepo.SetLotwLogin(ctx, stationID, req.Username, encrypted)
}

func (s *StationService) Delete(ctx context.Context, userID, stationID string) error {
	if _, err := s.ownedStation(ctx, userID, stationID); err != nil {
		return err
	}
	return s.stationRepo.Delete(ctx, stationID)
}

func (s *StationService) ownedStation(ctx context.Context, userID, stationID string) (*domain.Station, error) {
	station, err := s.stationRepo.FindByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if station.UserID != userID {
		return nil, fmt.Errorf("station not found or access denied")
	}
	return station, nil
}
