package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrPlanNotFound = errors.New("plan not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores the plan and all its workout days in one transaction.
func (r *Repo) Add(ctx context.Context, plan Plan) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("client.id", plan.ClientID),
		attribute.Int("plan.days", len(plan.Days)),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				log.Errorf("add plan: rollback: %s", rollbackErr)
			}
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`INSERT INTO plan
				(id, client_id, coach_id, assessment_id, title, overview,
				duration_weeks, status, notes, generated_by, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		plan.ID, plan.ClientID, plan.CoachID, plan.AssessmentID, plan.Title, plan.Overview,
		plan.DurationWeeks, plan.Status, plan.Notes, plan.GeneratedBy,
		plan.CreatedAt, plan.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	for _, day := range plan.Days {
		exercisesJson, marshalErr := json.Marshal(day.Exercises)
		if marshalErr != nil {
			err = fmt.Errorf("marshal exercises for day %d/%d: %w", day.Week, day.Day, marshalErr)
			return nil, err
		}
		if _, err = tx.Exec(
			ctx,
			`INSERT INTO workout_day
					(id, plan_id, week, day, focus, phase, exercises)
					VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			day.ID, plan.ID, day.Week, day.Day, day.Focus, day.Phase, exercisesJson,
		); err != nil {
			return nil, fmt.Errorf("insert workout day %d/%d: %w", day.Week, day.Day, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &plan, nil
}

// Get returns the plan with its workout days ordered by (week, day).
func (r *Repo) Get(ctx context.Context, id, coachID string) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id))

	rows, err := r.db.Query(
		ctx,
		selectPlanColumns+` WHERE id = $1 AND coach_id = $2;`,
		id, coachID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	plansFound, err := rows2plans(rows)
	if err != nil {
		return nil, err
	}

	if len(plansFound) != 1 {
		return nil, ErrPlanNotFound
	}

	plan := plansFound[0]
	days, err := r.daysForPlan(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("days for plan: %w", err)
	}
	plan.Days = days

	return &plan, nil
}

// List returns plans of a coach, newest first, optionally for one client.
func (r *Repo) List(ctx context.Context, coachID, clientID string) (_ []Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("coach.id", coachID))

	query := selectPlanColumns + ` WHERE coach_id = $1`
	args := []any{coachID}
	if clientID != "" {
		query += ` AND client_id = $2`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	plansFound, err := rows2plans(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2plans: %w", err)
	}
	return plansFound, nil
}

func (r *Repo) Update(ctx context.Context, id, coachID string, update PlanUpdate) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", id))

	setClauses := "updated_at = NOW()"
	args := []any{id, coachID}
	addSet := func(column string, value any) {
		args = append(args, value)
		setClauses += fmt.Sprintf(", %s = $%d", column, len(args))
	}

	if update.Status != nil {
		addSet("status", *update.Status)
	}
	if update.Notes != nil {
		addSet("notes", *update.Notes)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE plan SET `+setClauses+` WHERE id = $1 AND coach_id = $2;`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrPlanNotFound
	}

	return r.Get(ctx, id, coachID)
}

func (r *Repo) daysForPlan(ctx context.Context, planID string) ([]WorkoutDay, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, plan_id, week, day, focus, phase, exercises
			FROM workout_day WHERE plan_id = $1 ORDER BY week ASC, day ASC;`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	days := make([]WorkoutDay, 0)
	for rows.Next() {
		var (
			d             WorkoutDay
			exercisesJson []byte
		)
		if err := rows.Scan(
			&d.ID, &d.PlanID, &d.Week, &d.Day, &d.Focus, &d.Phase, &exercisesJson,
		); err != nil {
			return nil, err
		}
		if len(exercisesJson) > 0 {
			if err := json.Unmarshal(exercisesJson, &d.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises for day %s: %w", d.ID, err)
			}
		}
		if d.Exercises == nil {
			d.Exercises = make([]WorkoutExercise, 0)
		}
		days = append(days, d)
	}

	return days, nil
}

const selectPlanColumns = `
	SELECT
		id, client_id, coach_id, assessment_id, title, overview,
		duration_weeks, status, notes, generated_by, created_at, updated_at
	FROM plan`

func rows2plans(rows pgx.Rows) ([]Plan, error) {
	var plansFound []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(
			&p.ID, &p.ClientID, &p.CoachID, &p.AssessmentID, &p.Title, &p.Overview,
			&p.DurationWeeks, &p.Status, &p.Notes, &p.GeneratedBy,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		plansFound = append(plansFound, p)
	}

	if plansFound == nil {
		plansFound = make([]Plan, 0)
	}

	return plansFound, nil
}
