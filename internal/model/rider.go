package model

// RiderProfile is the rider-side marketplace profile. One per user, upserted
// as a whole from the onboarding form.
type RiderProfile struct {
	UserID           string   `json:"user_id"`
	DisplayName      string   `json:"display_name"`
	Nation           string   `json:"nation,omitempty"`
	MainCategory     string   `json:"main_category"`
	RacingScore      *int     `json:"racing_score,omitempty"`
	SearchStatus     string   `json:"search_status"`
	ZwiftpowerLink   string   `json:"zwiftpower_link,omitempty"`
	ZwiftracingLink  string   `json:"zwiftracing_link,omitempty"`
	PreferredLeagues []string `json:"preferred_leagues"`
	PreferredDays    []string `json:"preferred_days"`
	PreferredTime    string   `json:"preferred_time,omitempty"`
	RiderType        string   `json:"rider_type,omitempty"`
	DiscordHandle    string   `json:"discord_handle,omitempty"`
	Bio              string   `json:"bio,omitempty"`
}
