package models

import "time"

// SiteSettings is the singleton site record.
type SiteSettings struct {
	Name            string    `json:"name"`
	Tagline         string    `json:"tagline"`
	Lede            string    `json:"lede"`
	Logo            *string   `json:"logo,omitempty"`
	LogoDescription *string   `json:"logoDescription,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
