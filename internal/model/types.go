package model

import "time"

// User is an account in the user directory. Email is stored lowercased.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"createdAt"`
}

// Calendar is owned by exactly one user.
type Calendar struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"ownerId" bson:"user"`
	Name      string    `json:"name" bson:"name"`
	Color     string    `json:"color,omitempty" bson:"color,omitempty"`
	IsDefault bool      `json:"isDefault" bson:"isDefault"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"createdAt"`
}

// Event belongs to exactly one calendar. Start <= End is assumed, not re-checked by readers.
type Event struct {
	ID          string    `json:"id" bson:"_id"`
	CalendarID  string    `json:"calendarId" bson:"calendar"`
	CreatedBy   string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Location    string    `json:"location,omitempty" bson:"location,omitempty"`
	Start       time.Time `json:"start" bson:"start"`
	End         time.Time `json:"end" bson:"end"`
	AllDay      bool      `json:"allDay" bson:"allDay"`
	// Recurrence is a label only ("daily", "weekly", ...); occurrences are never expanded.
	Recurrence string    `json:"recurrence,omitempty" bson:"recurrence,omitempty"`
	ExternalID string    `json:"externalId,omitempty" bson:"externalId,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty" bson:"createdAt"`
}
