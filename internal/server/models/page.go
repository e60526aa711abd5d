package models

import "time"

// Page is global CMS content; it has no owner.
type Page struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Body             string    `json:"body"`
	Image            *string   `json:"image,omitempty"`
	ImageDescription *string   `json:"imageDescription,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
