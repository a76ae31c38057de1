package assessment

import "time"

// Assessment is a single structured fitness assessment of a client,
// taken once per visit. All sub-sections are optional, the record is
// immutable once stored.
type Assessment struct {
	ID               string            `json:"id"`
	ClientID         string            `json:"clientId"`
	AssessmentDate   time.Time         `json:"assessmentDate"`
	PersonalInfo     *PersonalInfo     `json:"personalInfo,omitempty"`
	BodyMetrics      *BodyMetrics      `json:"bodyMetrics,omitempty"`
	HealthHistory    *HealthHistory    `json:"healthHistory,omitempty"`
	Injuries         *InjuryInfo       `json:"injuries,omitempty"`
	FitnessGoals     *FitnessGoals     `json:"fitnessGoals,omitempty"`
	ExerciseHistory  *ExerciseHistory  `json:"exerciseHistory,omitempty"`
	Lifestyle        *LifestyleInfo    `json:"lifestyle,omitempty"`
	Availability     *AvailabilityInfo `json:"availability,omitempty"`
	StrengthBaseline *StrengthBaseline `json:"strengthBaseline,omitempty"`
	CardioBaseline   *CardioBaseline   `json:"cardioBaseline,omitempty"`
	FMSScores        *FMSScores        `json:"fmsScores,omitempty"`
	CustomFields     map[string]any    `json:"customFields,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

type PersonalInfo struct {
	EmergencyContactName  string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string `json:"emergencyContactPhone,omitempty"`
	Occupation            string `json:"occupation,omitempty"`
}

type HealthHistory struct {
	MedicalConditions []string `json:"medicalConditions,omitempty"`
	Medications       []string `json:"medications,omitempty"`
	Surgeries         []string `json:"surgeries,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`
}

type InjuryInfo struct {
	PastInjuries       []string `json:"pastInjuries,omitempty"`
	CurrentLimitations []string `json:"currentLimitations,omitempty"`
	PainAreas          []string `json:"painAreas,omitempty"`
}

type FitnessGoals struct {
	ShortTerm     string   `json:"shortTerm,omitempty"`
	LongTerm      string   `json:"longTerm,omitempty"`
	PriorityFocus []string `json:"priorityFocus,omitempty"`
}

type ExerciseHistory struct {
	ExperienceLevel   string   `json:"experienceLevel,omitempty"`
	CurrentFrequency  int      `json:"currentFrequency,omitempty"`
	PastSports        []string `json:"pastSports,omitempty"`
	CurrentActivities []string `json:"currentActivities,omitempty"`
}

type LifestyleInfo struct {
	SleepHours      float64 `json:"sleepHours,omitempty"`
	SleepQuality    string  `json:"sleepQuality,omitempty"`
	StressLevel     string  `json:"stressLevel,omitempty"`
	DietType        string  `json:"dietType,omitempty"`
	HydrationLiters float64 `json:"hydrationLiters,omitempty"`
}

type AvailabilityInfo struct {
	DaysPerWeek       int      `json:"daysPerWeek,omitempty"`
	MinutesPerSession int      `json:"minutesPerSession,omitempty"`
	PreferredDays     []string `json:"preferredDays,omitempty"`
	EquipmentAccess   []string `json:"equipmentAccess,omitempty"`
	TrainingLocation  string   `json:"trainingLocation,omitempty"`
}

type StrengthBaseline struct {
	Squat1RMKg       float64 `json:"squat1RmKg,omitempty"`
	Bench1RMKg       float64 `json:"bench1RmKg,omitempty"`
	Deadlift1RMKg    float64 `json:"deadlift1RmKg,omitempty"`
	PushUpMax        int     `json:"pushUpMax,omitempty"`
	PullUpMax        int     `json:"pullUpMax,omitempty"`
	PlankHoldSeconds int     `json:"plankHoldSeconds,omitempty"`
}

type CardioBaseline struct {
	RestingHR       int     `json:"restingHr,omitempty"`
	MaxHR           int     `json:"maxHr,omitempty"`
	EstimatedVO2Max float64 `json:"estimatedVo2Max,omitempty"`
	Run5KMinutes    float64 `json:"run5KMinutes,omitempty"`
	Run1MileMinutes float64 `json:"run1MileMinutes,omitempty"`
}

// Validate checks the sub-sections that carry derivable values.
// Malformed input is rejected at this boundary instead of being
// silently defaulted.
func (a *Assessment) Validate() error {
	if a.BodyMetrics != nil {
		if err := a.BodyMetrics.Validate(); err != nil {
			return err
		}
	}
	if a.FMSScores != nil {
		if _, err := a.FMSScores.Total(); err != nil {
			return err
		}
	}
	return nil
}

// FillDerived computes the derived snapshot values before the
// assessment is stored: currently the FMS total score.
func (a *Assessment) FillDerived() error {
	if a.FMSScores == nil {
		return nil
	}
	total, err := a.FMSScores.Total()
	if err != nil {
		return err
	}
	a.FMSScores.TotalScore = total
	return nil
}
