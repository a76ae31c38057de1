package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeFMS_PerfectScreen(t *testing.T) {
	scores := FMSScores{
		DeepSquat:              3,
		HurdleStep:             3,
		InlineLunge:            3,
		ShoulderMobility:       3,
		ActiveStraightLegRaise: 3,
		TrunkStabilityPushup:   3,
		RotaryStability:        3,
	}

	analysis, err := AnalyzeFMS(scores, nil)
	require.NoError(t, err)

	assert.Equal(t, 21, analysis.TotalScore)
	assert.Equal(t, FMSMaxTotal, analysis.MaxScore)
	assert.Equal(t, RiskLow, analysis.Risk)
	assert.Empty(t, analysis.Limitations)
	assert.Empty(t, analysis.Contraindications)
	assert.Empty(t, analysis.Recommendations)
}

func TestAnalyzeFMS_Limitations(t *testing.T) {
	scores := FMSScores{
		DeepSquat:              1,
		HurdleStep:             3,
		InlineLunge:            3,
		ShoulderMobility:       2,
		ActiveStraightLegRaise: 3,
		TrunkStabilityPushup:   3,
		RotaryStability:        3,
	}

	analysis, err := AnalyzeFMS(scores, []string{"old acl tear"})
	require.NoError(t, err)

	assert.Equal(t, 18, analysis.TotalScore)
	assert.Equal(t, RiskLow, analysis.Risk)
	require.Len(t, analysis.Limitations, 2)
	assert.Contains(t, analysis.Limitations, "Squat pattern limitation")
	assert.Contains(t, analysis.Limitations, "Shoulder mobility limitation")
	assert.Contains(t, analysis.Contraindications, "Heavy bilateral squats")
	assert.Contains(t, analysis.Contraindications, "Overhead pressing, behind-neck movements")
	assert.Equal(t, []string{"old acl tear"}, analysis.InjuryConsiderations)
}

func TestAnalyzeFMS_HighRisk(t *testing.T) {
	scores := FMSScores{
		DeepSquat:              1,
		HurdleStep:             1,
		InlineLunge:            1,
		ShoulderMobility:       2,
		ActiveStraightLegRaise: 2,
		TrunkStabilityPushup:   2,
		RotaryStability:        1,
	}

	analysis, err := AnalyzeFMS(scores, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, analysis.TotalScore)
	assert.Equal(t, RiskHigh, analysis.Risk)
	// all seven movements scored below 3
	assert.Len(t, analysis.Limitations, 7)
	assert.Len(t, analysis.Contraindications, 7)
	assert.Len(t, analysis.Recommendations, 7)
}

func TestAnalyzeFMS_InvalidScores(t *testing.T) {
	scores := allTwos()
	scores.HurdleStep = 7
	_, err := AnalyzeFMS(scores, nil)
	require.ErrorIs(t, err, ErrInvalidScore)
}
