package model

import "time"

type ContactStatus string

const (
	StatusPending  ContactStatus = "pending"
	StatusAccepted ContactStatus = "accepted"
	StatusDeclined ContactStatus = "declined"
)

// ValidStatus reports whether s is one of the three application states.
func ValidStatus(s ContactStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// ContactRequest is one rider-to-team application and the conversation thread
// attached to it. Exactly the applicant (FromUserID), the addressee
// (ToUserID) and the team owner may read or act on it.
type ContactRequest struct {
	ID          string        `json:"id"`
	FromUserID  string        `json:"from_user_id"`
	ToUserID    *string       `json:"to_user_id,omitempty"`
	TeamID      string        `json:"team_id"`
	OpeningID   *string       `json:"opening_id,omitempty"`
	Message     *string       `json:"message,omitempty"`
	Status      ContactStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	TeamOwnerID string        `json:"-"`
	TeamName    string        `json:"team_name,omitempty"`
}

// IsParticipant reports whether userID sits on either side of the thread.
func (c *ContactRequest) IsParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	if c.FromUserID == userID {
		return true
	}
	if c.ToUserID != nil && *c.ToUserID == userID {
		return true
	}
	return c.TeamOwnerID == userID
}
