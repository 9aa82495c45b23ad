package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"nextlog-sync-server/internal/domain"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	FindByID(ctx context.Context, id string) (*domain.Contact, error)
	ListByStation(ctx context.Context, userID, stationID string, limit, offset int) ([]*domain.Contact, error)
	// ListPendingUpload returns contacts in the window that have not
	// been sent to LoTW yet, oldest first.
	ListPendingUpload(ctx context.Context, userID, stationID string, from, to *time.Time) ([]*domain.Contact, error)
	// ListForWindow returns all contacts in the window, the candidate
	// set the matcher runs against.
	ListForWindow(ctx context.Context, userID, stationID string, from, to *time.Time) ([]*domain.Contact, error)
	MarkUploaded(ctx context.Context, ids []string) error
	// ApplyVerdict records a confirmation verdict on one contact.
	ApplyVerdict(ctx context.Context, contactID string, verdict domain.Verdict, confirmedAt time.Time) error
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, id string) error
}

type contactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

const contactColumns = `id, user_id, station_id, callsign, datetime, band, mode,
	COALESCE(frequency, 0), COALESCE(rst_sent, ''), COALESCE(rst_rcvd, ''),
	COALESCE(grid_locator, ''), COALESCE(name, ''), COALESCE(qth, ''),
	COALESCE(state, ''), COALESCE(country, ''),
	COALESCE(dxcc, 0), COALESCE(cqz, 0), COALESCE(ituz, 0),
	COALESCE(lotw_qsl_sent, ''), COALESCE(lotw_qsl_rcvd, ''),
	COALESCE(lotw_match_status, ''), qsl_lotw_date, created_at, updated_at`

func (r *contactRepository) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (id, user_id, station_id, callsign, datetime, band, mode,
			frequency, rst_sent, rst_rcvd, grid_locator, name, qth, state, country,
			dxcc, cqz, ituz, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		c.ID, c.UserID, c.StationID, c.Callsign, c.Datetime, c.Band, c.Mode,
		c.Frequency, c.RSTSent, c.RSTRcvd, c.GridLocator, c.Name, c.QTH, c.State, c.Country,
		c.DXCC, c.CQZ, c.ITUZ, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) FindByID(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)

	contact, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return contact, nil
}

func (r *contactRepository) ListByStation(ctx context.Context, userID, stationID string, limit, offset int) ([]*domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE user_id = $1 AND station_id = $2
		 ORDER BY datetime DESC LIMIT $3 OFFSET $4`,
		userID, stationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (r *contactRepository) ListPendingUpload(ctx context.Context, userID, stationID string, from, to *time.Time) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1 AND station_id = $2
		 AND (lotw_qsl_sent IS NULL OR lotw_qsl_sent != 'Y')`
	args := []interface{}{userID, stationID}
	query, args = appendWindow(query, args, from, to)
	query += ` ORDER BY datetime ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending contacts: %w", err)
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (r *contactRepository) ListForWindow(ctx context.Context, userID, stationID string, from, to *time.Time) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		 WHERE user_id = $1 AND station_id = $2`
	args := []interface{}{userID, stationID}
	query, args = appendWindow(query, args, from, to)
	query += ` ORDER BY datetime ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()
	return collectContacts(rows)
}

func appendWindow(query string, args []interface{}, from, to *time.Time) (string, []interface{}) {
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND datetime >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND datetime <= $%d", len(args))
	}
	return query, args
}

func (r *contactRepository) MarkUploaded(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET lotw_qsl_sent = 'Y', updated_at = NOW() WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to mark contacts uploaded: %w", err)
	}
	return nil
}

func (r *contactRepository) ApplyVerdict(ctx context.Context, contactID string, verdict domain.Verdict, confirmedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE contacts
		 SET lotw_qsl_rcvd = 'Y', lotw_match_status = $1, qsl_lotw_date = $2, updated_at = NOW()
		 WHERE id = $3`,
		string(verdict), confirmedAt, contactID)
	if err != nil {
		return fmt.Errorf("failed to apply verdict: %w", err)
	}
	return nil
}

func (r *contactRepository) Update(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET callsign = $1, datetime = $2, band = $3, mode = $4,
			frequency = $5, rst_sent = $6, rst_rcvd = $7, grid_locator = $8,
			name = $9, qth = $10, state = $11, country = $12,
			dxcc = $13, cqz = $14, ituz = $15, updated_at = NOW()
		 WHERE id = $16`,
		c.Callsign, c.Datetime, c.Band, c.Mode, c.Frequency, c.RSTSent, c.RSTRcvd,
		c.GridLocator, c.Name, c.QTH, c.State, c.Country, c.DXCC, c.CQZ, c.ITUZ, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var c domain.Contact
	var qslDate sql.NullTime
	err := row.Scan(&c.ID, &c.UserID, &c.StationID, &c.Callsign, &c.Datetime, &c.Band, &c.Mode,
		&c.Frequency, &c.RSTSent, &c.RSTRcvd, &c.GridLocator, &c.Name, &c.QTH,
		&c.State, &c.Country, &c.DXCC, &c.CQZ, &c.ITUZ,
		&c.LotwQslSent, &c.LotwQslRcvd, &c.LotwMatchStatus, &qslDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if qslDate.Valid {
		c.QslLotwDate = &qslDate.Time
	}
	return &c, nil
}

func collectContacts(rows *sql.Rows) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}
