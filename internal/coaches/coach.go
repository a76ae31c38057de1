package coaches

import "time"

// Coach is an account owning clients, exercises, assessments and plans.
type Coach struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	PasswordHash       string    `json:"-"`
	TrainingPhilosophy string    `json:"trainingPhilosophy,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}
