package coaches

import (
	"context"
	"errors"

	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrCoachNotFound = errors.New("coach not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Coach, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coaches.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("coach.id", id))

	return r.getByField(ctx, "id", id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *Coach, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coaches.getbyemail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getByField(ctx, "email", email)
}

func (r *Repo) getByField(ctx context.Context, field, value string) (*Coach, error) {
	var c Coach
	err := r.db.QueryRow(
		ctx,
		`SELECT id, email, name, password_hash, training_philosophy, created_at
			FROM coach WHERE `+field+` = $1;`,
		value,
	).Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.TrainingPhilosophy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return &c, nil
}
