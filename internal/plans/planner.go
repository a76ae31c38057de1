package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ovukovic/coachhub/internal/assessment"
	"github.com/ovukovic/coachhub/internal/exercises"
	"github.com/ovukovic/coachhub/internal/llm"
	"github.com/ovukovic/coachhub/internal/telemetry/metrics"
	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
	Enabled() bool
}

// Planner builds workout plans. It runs a multi-step model workflow
// (movement screen analysis, exercise selection, full plan) and falls
// back to a deterministic periodized builder when the model is not
// available or returns nothing usable.
type Planner struct {
	llmClient completer
	metrics   *metrics.Manager
}

func NewPlanner(llmClient completer, metrics *metrics.Manager) *Planner {
	return &Planner{
		llmClient: llmClient,
		metrics:   metrics,
	}
}

type GenerateParams struct {
	Assessment      *assessment.Assessment
	ClientName      string
	CoachPhilosophy string
	Preferences     CoachPreferences
	Exercises       []exercises.Exercise
}

// Generate returns an unsaved draft plan, IDs and timestamps included.
func (p *Planner) Generate(ctx context.Context, params GenerateParams) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	defer func(begin time.Time) {
		p.metrics.HistPlanGenerationDuration.Observe(time.Since(begin).Seconds())
	}(time.Now())

	// schedule from the assessment wins over generic defaults
	if availability := params.Assessment.Availability; availability != nil {
		if params.Preferences.DaysPerWeek <= 0 {
			params.Preferences.DaysPerWeek = availability.DaysPerWeek
		}
		if params.Preferences.SessionMinutes <= 0 {
			params.Preferences.SessionMinutes = availability.MinutesPerSession
		}
	}
	params.Preferences.applyDefaults()

	var analysis *assessment.Analysis
	if params.Assessment.FMSScores != nil {
		var injuryHistory []string
		if injuries := params.Assessment.Injuries; injuries != nil {
			injuryHistory = append(injuryHistory, injuries.PastInjuries...)
			injuryHistory = append(injuryHistory, injuries.CurrentLimitations...)
		}
		a, analyzeErr := assessment.AnalyzeFMS(*params.Assessment.FMSScores, injuryHistory)
		if analyzeErr != nil {
			return nil, fmt.Errorf("analyze fms scores: %w", analyzeErr)
		}
		analysis = a
		span.SetAttributes(
			attribute.Int("fms.total", a.TotalScore),
			attribute.String("fms.risk", string(a.Risk)),
		)
	}

	if p.llmClient.Enabled() {
		plan, modelErr := p.generateWithModel(ctx, params, analysis)
		if modelErr == nil {
			span.SetAttributes(attribute.String("plan.generated_by", string(GeneratedByModel)))
			p.metrics.CounterPlansGenerated.Inc()
			return plan, nil
		}
		log.Warnf("model plan generation failed, using fallback: %s", modelErr)
	}

	plan := p.fallbackPlan(params, analysis)
	span.SetAttributes(attribute.String("plan.generated_by", string(GeneratedByFallback)))
	p.metrics.CounterPlansGenerated.Inc()
	return plan, nil
}

const plannerSystemPromptFmt = `You are an expert strength and conditioning coach designing periodized
training plans. Respect movement limitations and contraindications from the
client's movement screen, match the requested schedule exactly, and pick
exercises from the coach's library where possible.%s`

var savePlanTool = llm.Tool{
	Name:        "save_workout_plan",
	Description: "Save the complete periodized workout plan",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string"},
			"overview": map[string]any{"type": "string"},
			"days": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"week":  map[string]any{"type": "integer"},
						"day":   map[string]any{"type": "integer"},
						"focus": map[string]any{"type": "string"},
						"phase": map[string]any{
							"type": "string",
							"enum": []string{"anatomical_adaptation", "hypertrophy", "strength", "power", "deload"},
						},
						"exercises": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"name":        map[string]any{"type": "string"},
									"sets":        map[string]any{"type": "integer"},
									"reps":        map[string]any{"type": "string"},
									"restSeconds": map[string]any{"type": "integer"},
									"notes":       map[string]any{"type": "string"},
								},
								"required": []string{"name", "sets", "reps"},
							},
						},
					},
					"required": []string{"week", "day", "focus", "exercises"},
				},
			},
		},
		"required": []string{"title", "days"},
	},
}

var selectExercisesTool = llm.Tool{
	Name:        "select_exercises",
	Description: "Select the exercises to build the plan from",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"exercises": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"reasoning": map[string]any{"type": "string"},
		},
		"required": []string{"exercises"},
	},
}

func (p *Planner) generateWithModel(
	ctx context.Context,
	params GenerateParams,
	analysis *assessment.Analysis,
) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.generatewithmodel")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	systemPrompt := fmt.Sprintf(plannerSystemPromptFmt, "")
	if params.CoachPhilosophy != "" {
		systemPrompt = fmt.Sprintf(
			plannerSystemPromptFmt,
			fmt.Sprintf("\n\nCoach's training philosophy:\n%s", params.CoachPhilosophy),
		)
	}

	clientBrief := p.clientBrief(params, analysis)

	// step 1: exercise selection against the coach's library
	selection, err := p.llmClient.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Messages: []llm.Message{{
			Role: "user",
			Content: fmt.Sprintf(
				"%s\n\nCoach's exercise library:\n%s\n\nSelect the exercises to build this client's plan from.",
				clientBrief, p.exerciseLibraryBrief(params.Exercises),
			),
		}},
		Tool: &selectExercisesTool,
	})
	if err != nil {
		return nil, fmt.Errorf("select exercises step: %w", err)
	}

	var selected struct {
		Exercises []string `json:"exercises"`
		Reasoning string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(selection), &selected); err != nil {
		return nil, fmt.Errorf("unmarshal exercise selection: %w", err)
	}
	span.SetAttributes(attribute.Int("plan.selected_exercises", len(selected.Exercises)))

	// step 2: full periodized plan from the selection
	planCompletion, err := p.llmClient.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Messages: []llm.Message{{
			Role: "user",
			Content: fmt.Sprintf(
				"%s\n\nSelected exercises: %s\n\nGenerate the complete %d-week plan, %d sessions per week, ~%d minutes each.",
				clientBrief,
				strings.Join(selected.Exercises, ", "),
				params.Preferences.DurationWeeks,
				params.Preferences.DaysPerWeek,
				params.Preferences.SessionMinutes,
			),
		}},
		Tool: &savePlanTool,
	})
	if err != nil {
		return nil, fmt.Errorf("generate plan step: %w", err)
	}

	var generated struct {
		Title    string `json:"title"`
		Overview string `json:"overview"`
		Days     []struct {
			Week      int               `json:"week"`
			Day       int               `json:"day"`
			Focus     string            `json:"focus"`
			Phase     string            `json:"phase"`
			Exercises []WorkoutExercise `json:"exercises"`
		} `json:"days"`
	}
	if err := json.Unmarshal([]byte(planCompletion), &generated); err != nil {
		return nil, fmt.Errorf("unmarshal generated plan: %w", err)
	}

	if generated.Title == "" || len(generated.Days) == 0 {
		return nil, fmt.Errorf("generated plan incomplete: title [%s], days [%d]", generated.Title, len(generated.Days))
	}

	plan := p.newDraftPlan(params, GeneratedByModel)
	plan.Title = generated.Title
	plan.Overview = generated.Overview
	for _, day := range generated.Days {
		if day.Week < 1 || day.Week > params.Preferences.DurationWeeks || len(day.Exercises) == 0 {
			return nil, fmt.Errorf("generated plan has invalid day: week %d, %d exercises", day.Week, len(day.Exercises))
		}
		plan.Days = append(plan.Days, WorkoutDay{
			ID:        uuid.NewString(),
			PlanID:    plan.ID,
			Week:      day.Week,
			Day:       day.Day,
			Focus:     day.Focus,
			Phase:     day.Phase,
			Exercises: day.Exercises,
		})
	}

	return plan, nil
}

func (p *Planner) clientBrief(params GenerateParams, analysis *assessment.Analysis) string {
	var brief strings.Builder
	fmt.Fprintf(&brief, "Client: %s\n", params.ClientName)

	if bm := params.Assessment.BodyMetrics; bm != nil {
		if bmi, err := bm.BMI(); err == nil {
			fmt.Fprintf(&brief, "Body: %.1f cm, %.1f kg, BMI %.1f\n", bm.HeightCm, bm.WeightKg, bmi)
		}
	}
	if goals := params.Assessment.FitnessGoals; goals != nil {
		if goals.ShortTerm != "" || goals.LongTerm != "" {
			fmt.Fprintf(&brief, "Goals: short term [%s], long term [%s]\n", goals.ShortTerm, goals.LongTerm)
		}
		if len(goals.PriorityFocus) > 0 {
			fmt.Fprintf(&brief, "Priority focus: %s\n", strings.Join(goals.PriorityFocus, ", "))
		}
	}

	if analysis != nil {
		fmt.Fprintf(&brief, "Movement screen: %d/%d, %s risk\n", analysis.TotalScore, analysis.MaxScore, analysis.Risk)
		if len(analysis.Limitations) > 0 {
			fmt.Fprintf(&brief, "Limitations: %s\n", strings.Join(analysis.Limitations, "; "))
		}
		if len(analysis.Contraindications) > 0 {
			fmt.Fprintf(&brief, "Contraindications: %s\n", strings.Join(analysis.Contraindications, "; "))
		}
	}

	if params.Preferences.IntensityPreference != "" {
		fmt.Fprintf(&brief, "Intensity preference: %s, periodization: %s\n",
			params.Preferences.IntensityPreference, params.Preferences.PeriodizationStyle)
	}
	if params.Preferences.AdditionalNotes != "" {
		fmt.Fprintf(&brief, "Coach notes: %s\n", params.Preferences.AdditionalNotes)
	}

	return brief.String()
}

func (p *Planner) exerciseLibraryBrief(library []exercises.Exercise) string {
	if len(library) == 0 {
		return "(empty, use common bodyweight and free-weight exercises)"
	}
	var brief strings.Builder
	for _, e := range library {
		fmt.Fprintf(&brief, "- %s [%s]", e.Name, e.Category)
		if len(e.Equipment) > 0 {
			fmt.Fprintf(&brief, " (%s)", strings.Join(e.Equipment, ", "))
		}
		brief.WriteString("\n")
	}
	return brief.String()
}

func (p *Planner) newDraftPlan(params GenerateParams, generatedBy GeneratedBy) *Plan {
	now := time.Now()
	return &Plan{
		ID:            uuid.NewString(),
		ClientID:      params.Assessment.ClientID,
		AssessmentID:  params.Assessment.ID,
		Title:         fmt.Sprintf("%d-Week Personalized Training Plan", params.Preferences.DurationWeeks),
		DurationWeeks: params.Preferences.DurationWeeks,
		Status:        StatusDraft,
		GeneratedBy:   generatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

type phaseParams struct {
	sets        int
	reps        string
	restSeconds int
}

var phaseParamsByPhase = map[string]phaseParams{
	"anatomical_adaptation": {sets: 3, reps: "12-15", restSeconds: 60},
	"hypertrophy":           {sets: 4, reps: "8-12", restSeconds: 90},
	"strength":              {sets: 4, reps: "5-8", restSeconds: 120},
}

var fallbackFocusRotation = []string{"Upper Body", "Lower Body", "Full Body", "Cardio/Active Recovery"}

// fallbackPlan builds a deterministic linear periodized plan: adaptation
// for the first half, hypertrophy next, strength in the final week.
func (p *Planner) fallbackPlan(params GenerateParams, analysis *assessment.Analysis) *Plan {
	plan := p.newDraftPlan(params, GeneratedByFallback)
	plan.Overview = "Linear periodized plan built from the client's assessment. Review and adjust based on client feedback."
	if analysis != nil && analysis.Risk != assessment.RiskLow {
		plan.Overview += fmt.Sprintf(
			" Movement screen risk is %s, prioritize movement quality over load.", analysis.Risk)
	}

	for week := 1; week <= params.Preferences.DurationWeeks; week++ {
		phase := phaseForWeek(week, params.Preferences.DurationWeeks)
		for day := 1; day <= params.Preferences.DaysPerWeek; day++ {
			focus := fallbackFocusRotation[(day-1)%len(fallbackFocusRotation)]
			plan.Days = append(plan.Days, WorkoutDay{
				ID:        uuid.NewString(),
				PlanID:    plan.ID,
				Week:      week,
				Day:       day,
				Focus:     focus,
				Phase:     phase,
				Exercises: fallbackExercises(focus, phase),
			})
		}
	}

	return plan
}

func phaseForWeek(week, durationWeeks int) string {
	switch {
	case week <= (durationWeeks+1)/2:
		return "anatomical_adaptation"
	case week < durationWeeks:
		return "hypertrophy"
	default:
		return "strength"
	}
}

func fallbackExercises(focus, phase string) []WorkoutExercise {
	params, ok := phaseParamsByPhase[phase]
	if !ok {
		params = phaseParamsByPhase["hypertrophy"]
	}

	switch {
	case strings.Contains(focus, "Upper"):
		return []WorkoutExercise{
			{Name: "Push-Up or Bench Press", Sets: params.sets, Reps: params.reps, RestSeconds: params.restSeconds},
			{Name: "Dumbbell Row", Sets: params.sets, Reps: params.reps, RestSeconds: params.restSeconds},
			{Name: "Shoulder Press", Sets: 3, Reps: params.reps, RestSeconds: 60},
			{Name: "Face Pull", Sets: 3, Reps: "12-15", RestSeconds: 45},
		}
	case strings.Contains(focus, "Lower"):
		return []WorkoutExercise{
			{Name: "Squat Variation", Sets: params.sets, Reps: params.reps, RestSeconds: params.restSeconds},
			{Name: "Romanian Deadlift", Sets: params.sets, Reps: params.reps, RestSeconds: params.restSeconds},
			{Name: "Split Squat", Sets: 3, Reps: "10-12 each", RestSeconds: 60},
			{Name: "Glute Bridge", Sets: 3, Reps: "12-15", RestSeconds: 45},
		}
	case strings.Contains(focus, "Cardio"):
		return []WorkoutExercise{
			{Name: "Zone 2 Cardio", Sets: 1, Reps: "30 min", Notes: "Conversational pace"},
		}
	default: // full body
		return []WorkoutExercise{
			{Name: "Goblet Squat", Sets: params.sets, Reps: params.reps, RestSeconds: params.restSeconds},
			{Name: "Push-Up", Sets: 3, Reps: params.reps, RestSeconds: 60},
			{Name: "Dumbbell Row", Sets: 3, Reps: params.reps, RestSeconds: 60},
			{Name: "Plank", Sets: 3, Reps: "30-45 sec", RestSeconds: 45},
		}
	}
}
