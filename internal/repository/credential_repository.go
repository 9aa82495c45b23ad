package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nextlog-sync-server/internal/domain"
)

type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.LotwCredential) error
	// ActiveForStation returns the newest active certificate for the
	// station, or a "no active certificate" error.
	ActiveForStation(ctx context.Context, stationID string) (*domain.LotwCredential, error)
	ListByStation(ctx context.Context, stationID string) ([]*domain.LotwCredential, error)
	SetActive(ctx context.Context, id, stationID string) error
	Delete(ctx context.Context, id string) error
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.LotwCredential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lotw_credentials (id, station_id, user_id, callsign, p12_cert, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cred.ID, cred.StationID, cred.UserID, cred.Callsign, cred.P12Cert, cred.IsActive, cred.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *credentialRepository) ActiveForStation(ctx context.Context, stationID string) (*domain.LotwCredential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, station_id, user_id, callsign, p12_cert, is_active, created_at
		 FROM lotw_credentials
		 WHERE station_id = $1 AND is_active = true
		 ORDER BY created_at DESC LIMIT 1`, stationID)

	var c domain.LotwCredential
	err := row.Scan(&c.ID, &c.StationID, &c.UserID, &c.Callsign, &c.P12Cert, &c.IsActive, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no active certificate for station")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	return &c, nil
}

func (r *credentialRepository) ListByStation(ctx context.Context, stationID string) ([]*domain.LotwCredential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, station_id, user_id, callsign, p12_cert, is_active, created_at
		 FROM lotw_credentials WHERE station_id = $1 ORDER BY created_at DESC`, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var creds []*domain.LotwCredential
	for rows.Next() {
		var c domain.LotwCredential
		if err := rows.Scan(&c.ID, &c.StationID, &c.UserID, &c.Callsign, &c.P12Cert, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, &c)
	}
	return creds, rows.Err()
}

// SetActive activates one certificate and deactivates the station's
// others in a single transaction.
func (r *credentialRepository) SetActive(ctx context.Context, id, stationID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE lotw_credentials SET is_active = false WHERE station_id = $1`, stationID); err != nil {
		return fmt.Errorf("failed to deactivate credentials: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE lotw_credentials SET is_active = true WHERE id = $1 AND station_id = $2`, id, stationID); err != nil {
		return fmt.Errorf("failed to activate credential: %w", err)
	}

	return tx.Commit()
}

func (r *credentialRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM lotw_credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
