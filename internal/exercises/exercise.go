package exercises

import (
	"fmt"
	"time"
)

type Category string

const (
	CategoryStrength    Category = "strength"
	CategoryCardio      Category = "cardio"
	CategoryMobility    Category = "mobility"
	CategoryFlexibility Category = "flexibility"
	CategoryBalance     Category = "balance"
	CategoryPlyometric  Category = "plyometric"
	CategoryCore        Category = "core"
	CategoryWarmUp      Category = "warm_up"
	CategoryCoolDown    Category = "cool_down"
)

var validCategories = map[Category]bool{
	CategoryStrength:    true,
	CategoryCardio:      true,
	CategoryMobility:    true,
	CategoryFlexibility: true,
	CategoryBalance:     true,
	CategoryPlyometric:  true,
	CategoryCore:        true,
	CategoryWarmUp:      true,
	CategoryCoolDown:    true,
}

func (c Category) Validate() error {
	if !validCategories[c] {
		return fmt.Errorf("invalid exercise category: %s", c)
	}
	return nil
}

// Exercise is a library entry owned by a coach. ManualTags are set by
// the coach, AITags get generated from the name and description.
type Exercise struct {
	ID          string    `json:"id"`
	CoachID     string    `json:"coachId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Equipment   []string  `json:"equipment"`
	ManualTags  []string  `json:"manualTags"`
	AITags      []string  `json:"aiTags"`
	YoutubeURL  string    `json:"youtubeUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ExerciseUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Equipment   *[]string `json:"equipment,omitempty"`
	ManualTags  *[]string `json:"manualTags,omitempty"`
	YoutubeURL  *string   `json:"youtubeUrl,omitempty"`
}

func (u ExerciseUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Category == nil &&
		u.Equipment == nil && u.ManualTags == nil && u.YoutubeURL == nil
}

// NeedsNewAITags reports whether the update changes what the AI tags
// were generated from.
func (u ExerciseUpdate) NeedsNewAITags() bool {
	return u.Name != nil || u.Description != nil || u.Category != nil
}
