package exercises

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("coach.id", exercise.CoachID))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise
				(id, coach_id, name, description, category, equipment,
				manual_tags, ai_tags, youtube_url, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id;`,
		exercise.ID, exercise.CoachID, exercise.Name, exercise.Description,
		exercise.Category, exercise.Equipment, exercise.ManualTags, exercise.AITags,
		exercise.YoutubeURL, exercise.CreatedAt, exercise.UpdatedAt,
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

	span.SetAttributes(attribute.String("exercise.id", id))

	exercise.ID = id
	return &exercise, nil
}

func (r *Repo) Get(ctx context.Context, id, coachID string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id))

	rows, err := r.db.Query(
		ctx,
		selectExerciseColumns+` WHERE id = $1 AND coach_id = $2;`,
		id, coachID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, err
	}

	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}

	return &exercises[0], nil
}

// List returns all exercises of a coach, optionally filtered by category.
func (r *Repo) List(ctx context.Context, coachID string, category Category) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("coach.id", coachID))

	query := selectExerciseColumns + ` WHERE coach_id = $1`
	args := []any{coachID}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY name ASC;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2exercises: %w", err)
	}
	return exercises, nil
}

func (r *Repo) Update(ctx context.Context, id, coachID string, update ExerciseUpdate, aiTags *[]string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id))

	setClauses := "updated_at = NOW()"
	args := []any{id, coachID}
	addSet := func(column string, value any) {
		args = append(args, value)
		setClauses += fmt.Sprintf(", %s = $%d", column, len(args))
	}

	if update.Name != nil {
		addSet("name", *update.Name)
	}
	if update.Description != nil {
		addSet("description", *update.Description)
	}
	if update.Category != nil {
		addSet("category", *update.Category)
	}
	if update.Equipment != nil {
		addSet("equipment", *update.Equipment)
	}
	if update.ManualTags != nil {
		addSet("manual_tags", *update.ManualTags)
	}
	if update.YoutubeURL != nil {
		addSet("youtube_url", *update.YoutubeURL)
	}
	if aiTags != nil {
		addSet("ai_tags", *aiTags)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise SET `+setClauses+` WHERE id = $1 AND coach_id = $2;`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrExerciseNotFound
	}

	return r.Get(ctx, id, coachID)
}

func (r *Repo) Delete(ctx context.Context, id, coachID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise WHERE id = $1 AND coach_id = $2;`,
		id, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

const selectExerciseColumns = `
	SELECT
		id, coach_id, name, description, category, equipment,
		manual_tags, ai_tags, youtube_url, created_at, updated_at
	FROM exercise`

func rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	var exercises []Exercise
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(
			&e.ID, &e.CoachID, &e.Name, &e.Description, &e.Category, &e.Equipment,
			&e.ManualTags, &e.AITags, &e.YoutubeURL, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if e.Equipment == nil {
			e.Equipment = make([]string, 0)
		}
		if e.ManualTags == nil {
			e.ManualTags = make([]string, 0)
		}
		if e.AITags == nil {
			e.AITags = make([]string, 0)
		}
		exercises = append(exercises, e)
	}

	if exercises == nil {
		exercises = make([]Exercise, 0)
	}

	return exercises, nil
}
