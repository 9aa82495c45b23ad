package domain

import "time"

// LotwCredential is a signing certificate (.p12) registered for a
// station. P12Cert holds the vault-encrypted certificate bytes and is
// never serialized to clients.
type LotwCredential struct {
	ID        string    `json:"id"`
	StationID string    `json:"station_id"`
	UserID    string    `json:"user_id"`
	Callsign  string    `json:"callsign"`
	P12Cert   string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type UploadCertificateRequest struct {
	StationID string `json:"station_id" validate:"required,uuid4"`
	Callsign  string `json:"callsign" validate:"required,min=3,max=12"`
	// P12Base64 is the raw certificate file, base64-encoded for JSON
	// transport. It is decoded, then vault-encrypted before storage.
	P12Base64 string `json:"p12_cert" validate:"required"`
}
