// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. The password hash lives in its own table and is never
// loaded into this struct.
type User struct {
	ID                      string    `json:"id"`
	Email                   string    `json:"email"`
	DoNotSell               bool      `json:"doNotSell"`
	EmailVerified           bool      `json:"emailVerified"`
	VisualAvatar            *string   `json:"visualAvatar,omitempty"`
	VisualAvatarDescription *string   `json:"visualAvatarDescription,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the user-editable profile fields. A nil avatar
// keeps the stored one.
type ProfileUpdate struct {
	DoNotSell               bool
	VisualAvatar            *string
	VisualAvatarDescription *string
}

// DataExport is everything stored about a user, returned on request.
type DataExport struct {
	User  *User   `json:"user"`
	Notes []*Note `json:"notes"`
}
