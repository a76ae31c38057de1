package assessment

// Analysis holds the movement quality findings derived from the FMS
// sub-scores: for each movement scored below 3 the screen flags a
// limitation, the exercise patterns contraindicated by it, and the
// regressions/corrective work to program instead. Used by the plan
// generation workflow to constrain exercise selection.
type Analysis struct {
	TotalScore           int      `json:"totalScore"`
	MaxScore             int      `json:"maxScore"`
	Risk                 RiskBand `json:"risk"`
	Limitations          []string `json:"limitations"`
	Contraindications    []string `json:"contraindications"`
	Recommendations      []string `json:"recommendations"`
	InjuryConsiderations []string `json:"injuryConsiderations,omitempty"`
}

type movementFinding struct {
	limitation       string
	contraindication string
	recommendation   string
}

var movementFindings = map[string]movementFinding{
	"deep_squat": {
		limitation:       "Squat pattern limitation",
		contraindication: "Heavy bilateral squats",
		recommendation:   "Goblet squats, box squats, hip/ankle mobility work",
	},
	"hurdle_step": {
		limitation:       "Single-leg stance limitation",
		contraindication: "Advanced single-leg exercises",
		recommendation:   "Progress single-leg work gradually",
	},
	"inline_lunge": {
		limitation:       "Lunge pattern limitation",
		contraindication: "Walking lunges, dynamic lunges",
		recommendation:   "Static split squats before dynamic lunges",
	},
	"shoulder_mobility": {
		limitation:       "Shoulder mobility limitation",
		contraindication: "Overhead pressing, behind-neck movements",
		recommendation:   "Landmine press, floor press, thoracic mobility",
	},
	"active_straight_leg_raise": {
		limitation:       "Hamstring/hip flexor limitation",
		contraindication: "Aggressive hip hinging",
		recommendation:   "RDLs with limited range, active flexibility work",
	},
	"trunk_stability_pushup": {
		limitation:       "Core stability limitation",
		contraindication: "Heavy compound lifts without core prep",
		recommendation:   "Dead bugs, planks, anti-extension work",
	},
	"rotary_stability": {
		limitation:       "Rotational stability limitation",
		contraindication: "Rotational power exercises",
		recommendation:   "Pallof press, bird dogs, anti-rotation work",
	},
}

// AnalyzeFMS derives the movement quality findings from the given
// sub-scores. Like the raw metrics, it is pure and deterministic.
func AnalyzeFMS(scores FMSScores, injuryHistory []string) (*Analysis, error) {
	total, err := scores.Total()
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		TotalScore:           total,
		MaxScore:             FMSMaxTotal,
		Risk:                 ClassifyRisk(total),
		InjuryConsiderations: injuryHistory,
	}

	for _, m := range scores.movements() {
		if m.score >= 3 {
			continue
		}
		finding := movementFindings[m.name]
		analysis.Limitations = append(analysis.Limitations, finding.limitation)
		analysis.Contraindications = append(analysis.Contraindications, finding.contraindication)
		analysis.Recommendations = append(analysis.Recommendations, finding.recommendation)
	}

	return analysis, nil
}
