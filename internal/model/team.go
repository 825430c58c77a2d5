package model

import "time"

// Team is a recruiting team. A user owns at most one team; the owner is the
// only identity allowed to manage openings and decide on applications.
type Team struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Nation      string    `json:"nation,omitempty"`
	Description string    `json:"description,omitempty"`
	DiscordLink string    `json:"discord_link,omitempty"`
	Website     string    `json:"website,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Leagues     []string  `json:"leagues"`
	CreatedAt   time.Time `json:"created_at"`
}
