package model

import "time"

// Opening is a published recruiting slot (league, category, schedule).
type Opening struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	Title       string    `json:"title"`
	League      string    `json:"league,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Days        []string  `json:"days"`
	Timezone    string    `json:"timezone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Team        *Team     `json:"team,omitempty"`
}
