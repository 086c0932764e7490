package models

import "time"

// NotificationVariant mirrors the toast styles of the dashboard.
type NotificationVariant string

const NotificationDefault NotificationVariant = "default"

// Notification is a transient user-visible message.
type Notification struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Variant     NotificationVariant `json:"variant"`
	At          time.Time           `json:"at"`
}
