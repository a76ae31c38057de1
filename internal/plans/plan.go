package plans

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

var validStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusActive:    true,
	StatusCompleted: true,
	StatusArchived:  true,
}

func (s Status) Validate() error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid plan status: %s", s)
	}
	return nil
}

// GeneratedBy marks whether the plan came out of the model workflow or
// the deterministic fallback builder.
type GeneratedBy string

const (
	GeneratedByModel    GeneratedBy = "model"
	GeneratedByFallback GeneratedBy = "fallback"
)

type Plan struct {
	ID            string      `json:"id"`
	ClientID      string      `json:"clientId"`
	CoachID       string      `json:"coachId"`
	AssessmentID  string      `json:"assessmentId"`
	Title         string      `json:"title"`
	Overview      string      `json:"overview,omitempty"`
	DurationWeeks int         `json:"durationWeeks"`
	Status        Status      `json:"status"`
	Notes         string      `json:"notes,omitempty"`
	GeneratedBy   GeneratedBy `json:"generatedBy"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`

	// Days is filled on single-plan reads, list responses skip it.
	Days []WorkoutDay `json:"days,omitempty"`
}

// WorkoutDay is one training session within a plan. Exercises live in
// a JSONB column, ordering is (week, day).
type WorkoutDay struct {
	ID        string            `json:"id"`
	PlanID    string            `json:"planId"`
	Week      int               `json:"week"`
	Day       int               `json:"day"`
	Focus     string            `json:"focus"`
	Phase     string            `json:"phase,omitempty"`
	Exercises []WorkoutExercise `json:"exercises"`
}

type WorkoutExercise struct {
	Name        string   `json:"name"`
	Sets        int      `json:"sets"`
	Reps        string   `json:"reps"`
	WeightKg    *float64 `json:"weightKg,omitempty"`
	RestSeconds int      `json:"restSeconds,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// CoachPreferences steer plan generation.
type CoachPreferences struct {
	DurationWeeks       int    `json:"durationWeeks"`
	DaysPerWeek         int    `json:"daysPerWeek"`
	SessionMinutes      int    `json:"sessionMinutes"`
	PeriodizationStyle  string `json:"periodizationStyle"`
	IntensityPreference string `json:"intensityPreference"`
	AdditionalNotes     string `json:"additionalNotes"`
}

func (p *CoachPreferences) applyDefaults() {
	if p.DurationWeeks <= 0 {
		p.DurationWeeks = 4
	}
	if p.DaysPerWeek <= 0 {
		p.DaysPerWeek = 3
	}
	if p.DaysPerWeek > 6 {
		p.DaysPerWeek = 6
	}
	if p.SessionMinutes <= 0 {
		p.SessionMinutes = 60
	}
	if p.PeriodizationStyle == "" {
		p.PeriodizationStyle = "linear"
	}
	if p.IntensityPreference == "" {
		p.IntensityPreference = "moderate"
	}
}

type PlanUpdate struct {
	Status *Status `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

func (u PlanUpdate) Empty() bool {
	return u.Status == nil && u.Notes == nil
}
