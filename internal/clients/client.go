package clients

import "time"

// Client is a person coached by a coach. Every client belongs to
// exactly one coach and all access is scoped by that coach.
type Client struct {
	ID          string     `json:"id"`
	CoachID     string     `json:"coachId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type ClientUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

func (u ClientUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil &&
		u.DateOfBirth == nil && u.Notes == nil
}
