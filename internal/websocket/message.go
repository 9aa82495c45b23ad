// Package websocket pushes sync-job status to connected clients, so
// logbook UIs can show live upload/download progress instead of
// polling the log endpoints.
package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeSyncStatus MessageType = "sync_status"
	TypePing       MessageType = "ping"
	TypePong       MessageType = "pong"
)

type JobType string

const (
	JobUpload   JobType = "upload"
	JobDownload JobType = "download"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SyncStatusPayload mirrors one job state transition.
type SyncStatusPayload struct {
	JobType   JobType `json:"job_type"`
	LogID     string  `json:"log_id"`
	StationID string  `json:"station_id"`
	Status    string  `json:"status"`
	Degraded  bool    `json:"degraded,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func NewSyncStatusMessage(jobType JobType, logID, stationID, status string, degraded bool) (*Message, error) {
	return NewMessage(TypeSyncStatus, &SyncStatusPayload{
		JobType:   jobType,
		LogID:     logID,
		StationID: stationID,
		Status:    status,
		Degraded:  degraded,
	})
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
