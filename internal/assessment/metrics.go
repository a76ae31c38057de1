package assessment

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidMeasurement - non-positive height or weight, or a body fat percentage outside [0, 100]
	ErrInvalidMeasurement = errors.New("invalid measurement")
	// ErrInvalidScore - FMS sub-score outside of [0, 3]
	ErrInvalidScore = errors.New("invalid fms score")
)

const (
	FMSMaxTotal = 21

	// canonical FMS risk thresholds, applied uniformly:
	// total >= 15 -> low, 12 <= total < 15 -> moderate, total < 12 -> high
	fmsLowRiskMinTotal      = 15
	fmsModerateRiskMinTotal = 12
)

// RiskBand is a qualitative classification of the injury risk
// derived from the FMS total score.
type RiskBand string

const (
	RiskLow      RiskBand = "low"
	RiskModerate RiskBand = "moderate"
	RiskHigh     RiskBand = "high"
)

// ComputeBMI returns the body mass index rounded to one decimal place.
func ComputeBMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 {
		return 0, fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidMeasurement, weightKg)
	}
	if heightCm <= 0 {
		return 0, fmt.Errorf("%w: height must be positive, got %v", ErrInvalidMeasurement, heightCm)
	}

	heightM := heightCm / 100
	bmi := weightKg / (heightM * heightM)
	return math.Round(bmi*10) / 10, nil
}

// ClassifyRisk maps an FMS total score to its risk band.
// It is total, i.e. it never fails for any input.
func ClassifyRisk(total int) RiskBand {
	switch {
	case total >= fmsLowRiskMinTotal:
		return RiskLow
	case total >= fmsModerateRiskMinTotal:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// FMSScores holds the seven Functional Movement Screen sub-scores,
// each in [0, 3]. TotalScore is the stored snapshot of the derived
// total, filled in when the assessment is created.
type FMSScores struct {
	DeepSquat              int `json:"deepSquat"`
	HurdleStep             int `json:"hurdleStep"`
	InlineLunge            int `json:"inlineLunge"`
	ShoulderMobility       int `json:"shoulderMobility"`
	ActiveStraightLegRaise int `json:"activeStraightLegRaise"`
	TrunkStabilityPushup   int `json:"trunkStabilityPushup"`
	RotaryStability        int `json:"rotaryStability"`
	TotalScore             int `json:"totalScore"`
}

type fmsMovement struct {
	name  string
	score int
}

func (s FMSScores) movements() []fmsMovement {
	return []fmsMovement{
		{"deep_squat", s.DeepSquat},
		{"hurdle_step", s.HurdleStep},
		{"inline_lunge", s.InlineLunge},
		{"shoulder_mobility", s.ShoulderMobility},
		{"active_straight_leg_raise", s.ActiveStraightLegRaise},
		{"trunk_stability_pushup", s.TrunkStabilityPushup},
		{"rotary_stability", s.RotaryStability},
	}
}

// Total sums the seven sub-scores. Fails with ErrInvalidScore
// if any sub-score lies outside [0, 3].
func (s FMSScores) Total() (int, error) {
	total := 0
	for _, m := range s.movements() {
		if m.score < 0 || m.score > 3 {
			return 0, fmt.Errorf("%w: %s must be in [0, 3], got %d", ErrInvalidScore, m.name, m.score)
		}
		total += m.score
	}
	return total, nil
}

// Risk classifies the sub-scores total into a risk band.
func (s FMSScores) Risk() (RiskBand, error) {
	total, err := s.Total()
	if err != nil {
		return "", err
	}
	return ClassifyRisk(total), nil
}

// BodyMetrics - raw body measurements taken during an assessment.
// BodyFatPercentage is optional, heights and weights are required
// to be positive for BMI derivation.
type BodyMetrics struct {
	HeightCm          float64  `json:"heightCm"`
	WeightKg          float64  `json:"weightKg"`
	BodyFatPercentage *float64 `json:"bodyFatPercentage,omitempty"`
}

func (bm BodyMetrics) Validate() error {
	if _, err := ComputeBMI(bm.WeightKg, bm.HeightCm); err != nil {
		return err
	}
	if bm.BodyFatPercentage != nil {
		if *bm.BodyFatPercentage < 0 || *bm.BodyFatPercentage > 100 {
			return fmt.Errorf(
				"%w: body fat percentage must be in [0, 100], got %v",
				ErrInvalidMeasurement, *bm.BodyFatPercentage,
			)
		}
	}
	return nil
}

// BMI derives the body mass index from the stored measurements.
func (bm BodyMetrics) BMI() (float64, error) {
	return ComputeBMI(bm.WeightKg, bm.HeightCm)
}
