package auth

import "context"

type contextKey string

const coachIDContextKey contextKey = "coach-id"

func ContextWithCoachID(ctx context.Context, coachID string) context.Context {
	return context.WithValue(ctx, coachIDContextKey, coachID)
}

// CoachIDFromContext returns the authenticated coach ID set by the
// auth middleware, or false when the request was not authenticated.
func CoachIDFromContext(ctx context.Context) (string, bool) {
	coachID, ok := ctx.Value(coachIDContextKey).(string)
	return coachID, ok && coachID != ""
}
