package models

import "time"

type Note struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	Body             string    `json:"body"`
	Image            *string   `json:"image,omitempty"`
	ImageDescription *string   `json:"imageDescription,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
