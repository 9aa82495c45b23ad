package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/internal/repository"
)

type ContactService struct {
	contactRepo repository.ContactRepository
	stationRepo repository.StationRepository
}

func NewContactService(contactRepo repository.ContactRepository, stationRepo repository.StationRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo, stationRepo: stationRepo}
}

func (s *ContactService) Create(ctx context.Context, userID string, req *domain.CreateContactRequest) (*domain.Contact, error) {
	station, err := s.stationRepo.FindByID(ctx, req.StationID)
	if err != nil {
		return nil, err
	}
	if station.UserID != userID {
		return nil, fmt.Errorf("station not found or access denied")
	}

	now := time.Now()
	contact := &domain.Contact{
		ID:          uuid.New().String(),
		UserID:      userID,
		StationID:   req.StationID,
		Callsign:    req.Callsign,
		Datetime:    req.Datetime,
		Band:        req.Band,
		Mode:        req.Mode,
		Frequency:   req.Frequency,
		RSTSent:     req.RSTSent,
		RSTRcvd:     req.RSTRcvd,
		GridLocator: req.GridLocator,
		Name:        req.Name,
		QTH:         req.QTH,
		State:       req.State,
		Country:     req.Country,
		DXCC:        req.DXCC,
		CQZ:         req.CQZ,
		ITUZ:        req.ITUZ,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, userID, stationID string, limit, offset int) ([]*domain.Contact, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.contactRepo.ListByStation(ctx, userID, stationID, limit, offset)
}

func (s *ContactService) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	return s.ownedContact(ctx, userID, contactID)
}

func (s *ContactService) Update(ctx context.Context, userID, contactID string, req *domain.UpdateContactRequest) (*domain.Contact, error) {
	contact, err := s.ownedContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	contact.Callsign = req.Callsign
	contact.Datetime = req.Datetime
	contact.Band = req.Band
	contact.Mode = req.Mode
	contact.Frequency = req.Frequency
	contact.RSTSent = req.RSTSent
	contact.RSTRcvd = req.RSTRcvd
	contact.GridLocator = req.GridLocator
	contact.Name = req.Name
	contact.QTH = req.QTH
	contact.State = req.State
	contact.Country = req.Country
	contact.DXCC = req.DXCC
	contact.CQZ = req.CQZ
	contact.ITUZ = req.ITUZ

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, contactID string) error {
	if _, err := s.ownedContact(ctx, userID, contactID); err != nil {
		return err
	}
	return s.contactRepo.Delete(ctx, contactID)
}

func (s *ContactService) ownedContact(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact.UserID != userID {
		return nil, fmt.Errorf("contact not found or access denied")
	}
	return contact, nil
}
