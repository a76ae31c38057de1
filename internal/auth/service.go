package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovukovic/coachhub/internal/coaches"
	"github.com/ovukovic/coachhub/internal/telemetry/tracing"
	"github.com/ovukovic/coachhub/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "coachhub-session||"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotLoggedIn        = errors.New("not logged in")
)

type coachesRepo interface {
	Get(ctx context.Context, id string) (*coaches.Coach, error)
	GetByEmail(ctx context.Context, email string) (*coaches.Coach, error)
}

// Service issues and validates coach login tokens. Tokens are HS256
// JWTs, and each token's session is also tracked in redis with a TTL
// so that logout and forced expiry actually revoke it.
type Service struct {
	coaches     coachesRepo
	redisClient *redis.Client
	jwtSecret   []byte
	ttl         time.Duration
	// ability to inject time for unit testing
	NowFunc func() time.Time
}

func NewService(
	coaches coachesRepo,
	redisClient *redis.Client,
	jwtSecret []byte,
	ttl time.Duration,
) *Service {
	return &Service{
		coaches:     coaches,
		redisClient: redisClient,
		jwtSecret:   jwtSecret,
		ttl:         ttl,
		NowFunc:     time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (_ string, _ *coaches.Coach, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	coach, err := s.coaches.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, coaches.ErrCoachNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get coach: %w", err)
	}

	if !pkg.CheckPasswordHash(password, coach.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	now := s.NowFunc()
	sessionID := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   coach.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	sessionKey := sessionKeyPrefix + sessionID
	if err := s.redisClient.Set(ctx, sessionKey, coach.ID, s.ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	log.Debugf("coach %s logged in, session %s", coach.ID, sessionID)

	return token, coach, nil
}

func (s *Service) Logout(ctx context.Context, token string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.logout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	claims, err := s.parseClaims(token)
	if err != nil {
		return ErrNotLoggedIn
	}

	sessionKey := sessionKeyPrefix + claims.ID
	deleted, err := s.redisClient.Del(ctx, sessionKey).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		return ErrNotLoggedIn
	}
	return nil
}

// CheckToken validates the JWT signature and expiry, then checks that
// the session was not revoked. Returns the authenticated coach ID.
func (s *Service) CheckToken(ctx context.Context, token string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.checktoken")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	claims, err := s.parseClaims(token)
	if err != nil {
		return "", ErrNotLoggedIn
	}

	sessionKey := sessionKeyPrefix + claims.ID
	coachID, err := s.redisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotLoggedIn
		}
		return "", fmt.Errorf("get session: %w", err)
	}

	if coachID != claims.Subject {
		log.Errorf("session %s coach mismatch: token %s, redis %s", claims.ID, claims.Subject, coachID)
		return "", ErrNotLoggedIn
	}

	return coachID, nil
}

func (s *Service) parseClaims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.jwtSecret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return s.NowFunc() }),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
