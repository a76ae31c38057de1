package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrAssessmentNotFound = errors.New("assessment not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, assessment Assessment) (_ *Assessment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.assessment.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("client.id", assessment.ClientID))

	sections, err := marshalSections(&assessment)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO assessment
				(id, client_id, assessment_date,
				personal_info, body_metrics, health_history, injuries,
				fitness_goals, exercise_history, lifestyle, availability,
				strength_baseline, cardio_baseline, fms_scores, custom_fields,
				created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id;`,
		assessment.ID, assessment.ClientID, assessment.AssessmentDate,
		sections.personalInfo, sections.bodyMetrics, sections.healthHistory, sections.injuries,
		sections.fitnessGoals, sections.exerciseHistory, sections.lifestyle, sections.availability,
		sections.strengthBaseline, sections.cardioBaseline, sections.fmsScores, sections.customFields,
		assessment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id string
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.String("assessment.id", id))

	assessment.ID = id
	return &assessment, nil
}

func (r *Repo) Get(ctx context.Context, id, clientID string) (_ *Assessment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.assessment.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("assessment.id", id))

	rows, err := r.db.Query(
		ctx,
		selectAssessmentColumns+` WHERE id = $1 AND client_id = $2;`,
		id, clientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	assessments, err := r.rows2assessments(rows)
	if err != nil {
		return nil, err
	}

	if len(assessments) != 1 {
		return nil, ErrAssessmentNotFound
	}

	return &assessments[0], nil
}

// ListForClient returns all assessments of a client, newest assessment date first.
func (r *Repo) ListForClient(ctx context.Context, clientID string) (_ []Assessment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.assessment.listforclient")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("client.id", clientID))

	rows, err := r.db.Query(
		ctx,
		selectAssessmentColumns+` WHERE client_id = $1 ORDER BY assessment_date DESC;`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	assessments, err := r.rows2assessments(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2assessments: %w", err)
	}
	return assessments, nil
}

const selectAssessmentColumns = `
	SELECT
		id, client_id, assessment_date,
		personal_info, body_metrics, health_history, injuries,
		fitness_goals, exercise_history, lifestyle, availability,
		strength_baseline, cardio_baseline, fms_scores, custom_fields,
		created_at
	FROM assessment`

type marshaledSections struct {
	personalInfo     []byte
	bodyMetrics      []byte
	healthHistory    []byte
	injuries         []byte
	fitnessGoals     []byte
	exerciseHistory  []byte
	lifestyle        []byte
	availability     []byte
	strengthBaseline []byte
	cardioBaseline   []byte
	fmsScores        []byte
	customFields     []byte
}

func marshalSections(a *Assessment) (*marshaledSections, error) {
	s := &marshaledSections{}
	for _, section := range []struct {
		name string
		dst  *[]byte
		src  any
	}{
		{"personal_info", &s.personalInfo, a.PersonalInfo},
		{"body_metrics", &s.bodyMetrics, a.BodyMetrics},
		{"health_history", &s.healthHistory, a.HealthHistory},
		{"injuries", &s.injuries, a.Injuries},
		{"fitness_goals", &s.fitnessGoals, a.FitnessGoals},
		{"exercise_history", &s.exerciseHistory, a.ExerciseHistory},
		{"lifestyle", &s.lifestyle, a.Lifestyle},
		{"availability", &s.availability, a.Availability},
		{"strength_baseline", &s.strengthBaseline, a.StrengthBaseline},
		{"cardio_baseline", &s.cardioBaseline, a.CardioBaseline},
		{"fms_scores", &s.fmsScores, a.FMSScores},
		{"custom_fields", &s.customFields, a.CustomFields},
	} {
		if isNilSection(section.src) {
			continue
		}
		sectionJson, err := json.Marshal(section.src)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", section.name, err)
		}
		*section.dst = sectionJson
	}
	return s, nil
}

func isNilSection(src any) bool {
	switch v := src.(type) {
	case *PersonalInfo:
		return v == nil
	case *BodyMetrics:
		return v == nil
	case *HealthHistory:
		return v == nil
	case *InjuryInfo:
		return v == nil
	case *FitnessGoals:
		return v == nil
	case *ExerciseHistory:
		return v == nil
	case *LifestyleInfo:
		return v == nil
	case *AvailabilityInfo:
		return v == nil
	case *StrengthBaseline:
		return v == nil
	case *CardioBaseline:
		return v == nil
	case *FMSScores:
		return v == nil
	case map[string]any:
		return v == nil
	default:
		return src == nil
	}
}

func (r *Repo) rows2assessments(rows pgx.Rows) ([]Assessment, error) {
	var assessments []Assessment
	for rows.Next() {
		var (
			a        Assessment
			sections [12][]byte
			created  time.Time
		)
		if err := rows.Scan(
			&a.ID, &a.ClientID, &a.AssessmentDate,
			&sections[0], &sections[1], &sections[2], &sections[3],
			&sections[4], &sections[5], &sections[6], &sections[7],
			&sections[8], &sections[9], &sections[10], &sections[11],
			&created,
		); err != nil {
			return nil, err
		}
		a.CreatedAt = created

		for i, dst := range []any{
			&a.PersonalInfo, &a.BodyMetrics, &a.HealthHistory, &a.Injuries,
			&a.FitnessGoals, &a.ExerciseHistory, &a.Lifestyle, &a.Availability,
			&a.StrengthBaseline, &a.CardioBaseline, &a.FMSScores, &a.CustomFields,
		} {
			if len(sections[i]) == 0 {
				continue
			}
			if err := json.Unmarshal(sections[i], dst); err != nil {
				return nil, fmt.Errorf("unmarshal section %d for assessment %s: %w", i, a.ID, err)
			}
		}

		assessments = append(assessments, a)
	}

	if assessments == nil {
		assessments = make([]Assessment, 0)
	}

	return assessments, nil
}
