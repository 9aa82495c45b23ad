package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/internal/repository"
	"nextlog-sync-server/pkg/vault"
)

// CredentialService manages station signing certificates. Certificate
// bytes are vault-encrypted before storage and only decrypted inside
// the sync service when a signing job needs them.
type CredentialService struct {
	credRepo    repository.CredentialRepository
	stationRepo repository.StationRepository
	vault       *vault.Vault
}

func NewCredentialService(credRepo repository.CredentialRepository, stationRepo repository.StationRepository, v *vault.Vault) *CredentialService {
	return &CredentialService{credRepo: credRepo, stationRepo: stationRepo, vault: v}
}

func (s *CredentialService) UploadCertificate(ctx context.Context, userID string, req *domain.UploadCertificateRequest) (*domain.LotwCredential, error) {
	station, err := s.stationRepo.FindByID(ctx, req.StationID)
	if err != nil {
		return nil, err
	}
	if station.UserID != userID {
		return nil, fmt.Errorf("station not found or access denied")
	}

	// Validate before encrypting: the stored value must decode back to
	// the original bytes when a signing job unwraps it.
	if _, err := base64.StdEncoding.DecodeString(req.P12Base64); err != nil {
		return nil, fmt.Errorf("certificate is not valid base64: %w", err)
	}

	encrypted := s.vault.Encrypt(req.P12Base64)
	if encrypted == "" {
		return nil, fmt.Errorf("failed to encrypt certificate")
	}

	cred := &domain.LotwCredential{
		ID:        uuid.New().String(),
		StationID: req.StationID,
		UserID:    userID,
		Callsign:  req.Callsign,
		P12Cert:   encrypted,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.credRepo.Create(ctx, cred); err != nil {
		return nil, err
	}

	// The newest certificate becomes the active one.
	if err := s.credRepo.SetActive(ctx, cred.ID, req.StationID); err != nil {
		return nil, err
	}

	return cred, nil
}

func (s *CredentialService) List(ctx context.Context, userID, stationID string) ([]*domain.LotwCredential, error) {
	if err := s.checkOwnership(ctx, userID, stationID); err != nil {
		return nil, err
	}
	return s.credRepo.ListByStation(ctx, stationID)
}

func (s *CredentialService) SetActive(ctx context.Context, userID, stationID, credentialID string) error {
	if err := s.checkOwnership(ctx, userID, stationID); err != nil {
		return err
	}
	return s.credRepo.SetActive(ctx, credentialID, stationID)
}

func (s *CredentialService) Delete(ctx context.Context, userID, stationID, credentialID string) error {
	if err := s.checkOwnership(ctx, userID, stationID); err != nil {
		return err
	}
	return s.credRepo.Delete(ctx, credentialID)
}

func (s *CredentialService) checkOwnership(ctx context.Context, userID, stationID string) error {
	station, err := s.stationRepo.FindByID(ctx, stationID)
	if err != nil {
		return err
	}
	if station.UserID != userID {
		return fmt.Errorf("station not found or access denied")
	}
	return nil
}
