package availability

import "time"

const (
	StatusFree    = "free"
	StatusBlocked = "blocked"
	StatusUnknown = "unknown"

	msgUserNotFound = "User not found in system"

	// displayLayout renders hour:minute on the 12-hour clock, e.g. "03:30 PM".
	displayLayout = "03:04 PM"
	dateLayout    = "2006-01-02"
)

// AvailabilityResult is one entry of CheckAvailability, in input order.
// Conflicting events are never described, only counted.
type AvailabilityResult struct {
	Email         string `json:"email"`
	Exists        bool   `json:"exists"`
	UserID        string `json:"userId,omitempty"`
	Name          string `json:"name,omitempty"`
	Status        string `json:"status"`
	ConflictCount *int   `json:"conflictCount,omitempty"`
	Message       string `json:"message,omitempty"`
}

// FoundUser is a requested email that resolved to a user during slot search.
type FoundUser struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

// FreeSlot is a slot of the requested duration during which every found user is free.
type FreeSlot struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	StartFormatted string    `json:"startFormatted"`
	EndFormatted   string    `json:"endFormatted"`
}

type SlotSearchResult struct {
	Date       string      `json:"date"`
	Duration   int         `json:"duration"`
	Users      []FoundUser `json:"users"`
	FreeSlots  []FreeSlot  `json:"freeSlots"`
	TotalSlots int         `json:"totalSlots"`
}

// UserSummary is the only user data exposed by SearchUsers.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
