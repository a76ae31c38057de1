package auth

import (
	"context"
	"testing"
	"time"

	"github.com/ovukovic/coachhub/internal/coaches"
	"github.com/ovukovic/coachhub/pkg"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type coachesRepoMock struct {
	coachesByEmail map[string]*coaches.Coach
}

func newCoachesRepoMock(all ...*coaches.Coach) *coachesRepoMock {
	m := &coachesRepoMock{
		coachesByEmail: make(map[string]*coaches.Coach),
	}
	for _, c := range all {
		m.coachesByEmail[c.Email] = c
	}
	return m
}

func (m *coachesRepoMock) Get(_ context.Context, id string) (*coaches.Coach, error) {
	for _, c := range m.coachesByEmail {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, coaches.ErrCoachNotFound
}

func (m *coachesRepoMock) GetByEmail(_ context.Context, email string) (*coaches.Coach, error) {
	c, ok := m.coachesByEmail[email]
	if !ok {
		return nil, coaches.ErrCoachNotFound
	}
	return c, nil
}

func testCoach(t *testing.T) *coaches.Coach {
	t.Helper()
	passwordHash, err := pkg.HashPassword("str0ng-pass")
	require.NoError(t, err)
	return &coaches.Coach{
		ID:           "c4f2e9aa-1111-2222-3333-444455556666",
		Email:        "coach@example.com",
		Name:         "Test Coach",
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}

func TestService_Login(t *testing.T) {
	coach := testCoach(t)
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	redisMock.Regexp().
		ExpectSet(`coachhub-session\|\|.+`, coach.ID, time.Hour).
		SetVal("OK")

	token, loggedIn, err := service.Login(context.Background(), coach.Email, "str0ng-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, coach.ID, loggedIn.ID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_Login_WrongPassword(t *testing.T) {
	coach := testCoach(t)
	redisClient, _ := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	token, loggedIn, err := service.Login(context.Background(), coach.Email, "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
	assert.Nil(t, loggedIn)
}

func TestService_Login_UnknownCoach(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(), redisClient, []byte("test-secret"), time.Hour)

	_, _, err := service.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_CheckToken(t *testing.T) {
	coach := testCoach(t)
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	redisMock.Regexp().
		ExpectSet(`coachhub-session\|\|.+`, coach.ID, time.Hour).
		SetVal("OK")

	token, _, err := service.Login(context.Background(), coach.Email, "str0ng-pass")
	require.NoError(t, err)

	claims, err := service.parseClaims(token)
	require.NoError(t, err)

	redisMock.ExpectGet("coachhub-session||" + claims.ID).SetVal(coach.ID)

	coachID, err := service.CheckToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, coach.ID, coachID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_CheckToken_Expired(t *testing.T) {
	coach := testCoach(t)
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	issuedAt := time.Now().Add(-2 * time.Hour)
	service.NowFunc = func() time.Time { return issuedAt }

	redisMock.Regexp().
		ExpectSet(`coachhub-session\|\|.+`, coach.ID, time.Hour).
		SetVal("OK")

	token, _, err := service.Login(context.Background(), coach.Email, "str0ng-pass")
	require.NoError(t, err)

	// token expired an hour ago
	service.NowFunc = time.Now

	_, err = service.CheckToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestService_CheckToken_RevokedSession(t *testing.T) {
	coach := testCoach(t)
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	redisMock.Regexp().
		ExpectSet(`coachhub-session\|\|.+`, coach.ID, time.Hour).
		SetVal("OK")

	token, _, err := service.Login(context.Background(), coach.Email, "str0ng-pass")
	require.NoError(t, err)

	claims, err := service.parseClaims(token)
	require.NoError(t, err)

	redisMock.ExpectGet("coachhub-session||" + claims.ID).RedisNil()

	_, err = service.CheckToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestService_CheckToken_WrongSignature(t *testing.T) {
	coach := testCoach(t)
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	redisMock.Regexp().
		ExpectSet(`coachhub-session\|\|.+`, coach.ID, time.Hour).
		SetVal("OK")

	token, _, err := service.Login(context.Background(), coach.Email, "str0ng-pass")
	require.NoError(t, err)

	otherService := NewService(newCoachesRepoMock(coach), redisClient, []byte("other-secret"), time.Hour)
	_, err = otherService.CheckToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestService_Logout(t *testing.T) {
	coach := testCoach(t)
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	redisMock.Regexp().
		ExpectSet(`coachhub-session\|\|.+`, coach.ID, time.Hour).
		SetVal("OK")

	token, _, err := service.Login(context.Background(), coach.Email, "str0ng-pass")
	require.NoError(t, err)

	claims, err := service.parseClaims(token)
	require.NoError(t, err)

	redisMock.ExpectDel("coachhub-session||" + claims.ID).SetVal(1)

	require.NoError(t, service.Logout(context.Background(), token))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_Logout_NoSession(t *testing.T) {
	coach := testCoach(t)
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(newCoachesRepoMock(coach), redisClient, []byte("test-secret"), time.Hour)

	redisMock.Regexp().
		ExpectSet(`coachhub-session\|\|.+`, coach.ID, time.Hour).
		SetVal("OK")

	token, _, err := service.Login(context.Background(), coach.Email, "str0ng-pass")
	require.NoError(t, err)

	claims, err := service.parseClaims(token)
	require.NoError(t, err)

	redisMock.ExpectDel("coachhub-session||" + claims.ID).SetVal(0)

	assert.ErrorIs(t, service.Logout(context.Background(), token), ErrNotLoggedIn)
}
