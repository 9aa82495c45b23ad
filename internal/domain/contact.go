package domain

import "time"

// Contact is a single logged QSO. Zero values mean "not recorded" for
// the optional descriptive fields; the ADIF encoder skips them.
type Contact struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	StationID   string    `json:"station_id"`
	Callsign    string    `json:"callsign" validate:"required,min=3,max=12"`
	Datetime    time.Time `json:"datetime" validate:"required"`
	Band        string    `json:"band" validate:"required"`
	Mode        string    `json:"mode" validate:"required"`
	Frequency   float64   `json:"frequency,omitempty"`
	RSTSent     string    `json:"rst_sent,omitempty"`
	RSTRcvd     string    `json:"rst_rcvd,omitempty"`
	GridLocator string    `json:"grid_locator,omitempty"`
	Name        string    `json:"name,omitempty"`
	QTH         string    `json:"qth,omitempty"`
	State       string    `json:"state,omitempty"`
	Country     string    `json:"country,omitempty"`
	DXCC        int       `json:"dxcc,omitempty"`
	CQZ         int       `json:"cqz,omitempty"`
	ITUZ        int       `json:"ituz,omitempty"`

	// LoTW bookkeeping, maintained by the sync jobs.
	LotwQslSent     string     `json:"lotw_qsl_sent,omitempty"` // "Y" once uploaded
	LotwQslRcvd     string     `json:"lotw_qsl_rcvd,omitempty"` // "Y" once confirmed
	LotwMatchStatus string     `json:"lotw_match_status,omitempty"`
	QslLotwDate     *time.Time `json:"qsl_lotw_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateContactRequest struct {
	StationID   string    `json:"station_id" validate:"required,uuid4"`
	Callsign    string    `json:"callsign" validate:"required,min=3,max=12"`
	Datetime    time.Time `json:"datetime" validate:"required"`
	Band        string    `json:"band" validate:"required"`
	Mode        string    `json:"mode" validate:"required"`
	Frequency   float64   `json:"frequency"`
	RSTSent     string    `json:"rst_sent"`
	RSTRcvd     string    `json:"rst_rcvd"`
	GridLocator string    `json:"grid_locator"`
	Name        string    `json:"name"`
	QTH         string    `json:"qth"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	DXCC        int       `json:"dxcc"`
	CQZ         int       `json:"cqz"`
	ITUZ        int       `json:"ituz"`
}

type UpdateContactRequest struct {
	Callsign    string    `json:"callsign" validate:"required,min=3,max=12"`
	Datetime    time.Time `json:"datetime" validate:"required"`
	Band        string    `json:"band" validate:"required"`
	Mode        string    `json:"mode" validate:"required"`
	Frequency   float64   `json:"frequency"`
	RSTSent     string    `json:"rst_sent"`
	RSTRcvd     string    `json:"rst_rcvd"`
	GridLocator string    `json:"grid_locator"`
	Name        string    `json:"name"`
	QTH         string    `json:"qth"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	DXCC        int       `json:"dxcc"`
	CQZ         int       `json:"cqz"`
	ITUZ        int       `json:"ituz"`
}
