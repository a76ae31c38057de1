package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrClientNotFound = errors.New("client not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, client Client) (_ *Client, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.clients.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("coach.id", client.CoachID))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO client
				(id, coach_id, name, email, phone, date_of_birth, notes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id;`,
		client.ID, client.CoachID, client.Name, client.Email,
		client.Phone, client.DateOfBirth, client.Notes,
		client.CreatedAt, client.UpdatedAt,
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

	span.SetAttributes(attribute.String("client.id", id))

	client.ID = id
	return &client, nil
}

func (r *Repo) Get(ctx context.Context, id, coachID string) (_ *Client, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.clients.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("client.id", id))

	rows, err := r.db.Query(
		ctx,
		selectClientColumns+` WHERE id = $1 AND coach_id = $2;`,
		id, coachID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	clients, err := rows2clients(rows)
	if err != nil {
		return nil, err
	}

	if len(clients) != 1 {
		return nil, ErrClientNotFound
	}

	return &clients[0], nil
}

// List returns all clients of a coach, newest first.
func (r *Repo) List(ctx context.Context, coachID string) (_ []Client, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.clients.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("coach.id", coachID))

	rows, err := r.db.Query(
		ctx,
		selectClientColumns+` WHERE coach_id = $1 ORDER BY created_at DESC;`,
		coachID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	clients, err := rows2clients(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2clients: %w", err)
	}
	return clients, nil
}

func (r *Repo) Update(ctx context.Context, id, coachID string, update ClientUpdate) (_ *Client, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.clients.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("client.id", id))

	setClauses := "updated_at = NOW()"
	args := []any{id, coachID}
	addSet := func(column string, value any) {
		args = append(args, value)
		setClauses += fmt.Sprintf(", %s = $%d", column, len(args))
	}

	if update.Name != nil {
		addSet("name", *update.Name)
	}
	if update.Email != nil {
		addSet("email", *update.Email)
	}
	if update.Phone != nil {
		addSet("phone", *update.Phone)
	}
	if update.DateOfBirth != nil {
		addSet("date_of_birth", *update.DateOfBirth)
	}
	if update.Notes != nil {
		addSet("notes", *update.Notes)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE client SET `+setClauses+` WHERE id = $1 AND coach_id = $2;`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrClientNotFound
	}

	return r.Get(ctx, id, coachID)
}

func (r *Repo) Delete(ctx context.Context, id, coachID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.clients.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("client.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM client WHERE id = $1 AND coach_id = $2;`,
		id, coachID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

// OwnedByCoach reports whether the client exists and belongs to the coach.
func (r *Repo) OwnedByCoach(ctx context.Context, id, coachID string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.clients.ownedbycoach")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exists bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM client WHERE id = $1 AND coach_id = $2);`,
		id, coachID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

const selectClientColumns = `
	SELECT
		id, coach_id, name, email, phone, date_of_birth, notes, created_at, updated_at
	FROM client`

func rows2clients(rows pgx.Rows) ([]Client, error) {
	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(
			&c.ID, &c.CoachID, &c.Name, &c.Email, &c.Phone,
			&c.DateOfBirth, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	if clients == nil {
		clients = make([]Client, 0)
	}

	return clients, nil
}
