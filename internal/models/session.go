package models

import "time"

// TransportKind identifies how a viewer receives live updates.
type TransportKind string

const (
	TransportWebSocket TransportKind = "websocket"
	TransportSSE       TransportKind = "sse"
)

// ViewerSession represents a connected live dashboard viewer.
type ViewerSession struct {
	ID           string        `json:"id"`
	Transport    TransportKind `json:"transport"`
	RemoteAddr   string        `json:"remoteAddr,omitempty"`
	ConnectedAt  time.Time     `json:"connectedAt"`
	LastSeen     time.Time     `json:"lastSeen"`
	MessagesSent int           `json:"messagesSent"`
}
