package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nextlog-sync-server/internal/domain"
)

type StationRepository interface {
	Create(ctx context.Context, station *domain.Station) error
	FindByID(ctx context.Context, id string) (*domain.Station, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Station, error)
	// ListActiveWithLotw returns active stations that have a LoTW login
	// configured, the population the scheduled batch jobs walk.
	ListActiveWithLotw(ctx context.Context) ([]*domain.Station, error)
	Update(ctx context.Context, station *domain.Station) error
	SetLotwLogin(ctx context.Context, stationID, username, encryptedPassword string) error
	Delete(ctx context.Context, id string) error
}

type stationRepository struct {
	db *sql.DB
}

func NewStationRepository(db *sql.DB) StationRepository {
	return &stationRepository{db: db}
}

const stationColumns = `id, user_id, callsign, description, grid_locator,
	COALESCE(lotw_username, ''), COALESCE(lotw_password, ''), is_active, created_at, updated_at`

func (r *stationRepository) Create(ctx context.Context, station *domain.Station) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stations (id, user_id, callsign, description, grid_locator, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		station.ID, station.UserID, station.Callsign, station.Description,
		station.GridLocator, station.IsActive, station.CreatedAt, station.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}
	return nil
}

func (r *stationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE id = $1`, id)

	station, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("station not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find station: %w", err)
	}
	return station, nil
}

func (r *stationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Station, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer rows.Close()
	return collectStations(rows)
}

func (r *stationRepository) ListActiveWithLotw(ctx context.Context) ([]*domain.Station, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stationColumns+` FROM stations
		 WHERE is_active = true AND lotw_username IS NOT NULL AND lotw_password IS NOT NULL
		 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lotw stations: %w", err)
	}
	defer rows.Close()
	return collectStations(rows)
}

func (r *stationRepository) Update(ctx context.Context, station *domain.Station) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE stations SET description = $1, grid_locator = $2, is_active = $3, updated_at = NOW()
		 WHERE id = $4`,
		station.Description, station.GridLocator, station.IsActive, station.ID)
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}
	return nil
}

func (r *stationRepository) SetLotwLogin(ctx context.Context, stationID, username, encryptedPassword string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE stations SET lotw_username = $1, lotw_password = $2, updated_at = NOW()
		 WHERE id = $3`,
		username, encryptedPassword, stationID)
	if err != nil {
		return fmt.Errorf("failed to set lotw login: %w", err)
	}
	return nil
}

func (r *stationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStation(row rowScanner) (*domain.Station, error) {
	var s domain.Station
	err := row.Scan(&s.ID, &s.UserID, &s.Callsign, &s.Description, &s.GridLocator,
		&s.LotwUsername, &s.LotwPassword, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStations(rows *sql.Rows) ([]*domain.Station, error) {
	var stations []*domain.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, station)
	}
	return stations, rows.Err()
}
