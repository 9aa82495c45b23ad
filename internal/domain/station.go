package domain

import "time"

// Station is an operating location owned by a user. LoTW credentials
// attached to a station are stored vault-encrypted; LotwPassword never
// leaves the server in plaintext.
type Station struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Callsign     string    `json:"callsign" validate:"required,min=3,max=12"`
	Description  string    `json:"description,omitempty"`
	GridLocator  string    `json:"grid_locator,omitempty"`
	LotwUsername string    `json:"lotw_username,omitempty"`
	LotwPassword string    `json:"-"` // encrypted at rest
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateStationRequest struct {
	Callsign    string `json:"callsign" validate:"required,min=3,max=12"`
	Description string `json:"description" validate:"max=200"`
	GridLocator string `json:"grid_locator" validate:"omitempty,min=4,max=8"`
}

type UpdateStationRequest struct {
	Description string `json:"description" validate:"max=200"`
	GridLocator string `json:"grid_locator" validate:"omitempty,min=4,max=8"`
	IsActive    *bool  `json:"is_active"`
}

// SetLotwLoginRequest updates the username/password pair used for the
// confirmation report download.
type SetLotwLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
