package assessment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ovukovic/coachhub/internal/auth"
	"github.com/ovukovic/coachhub/internal/telemetry/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCoachID = "7a1c9a44-0000-1111-2222-333344445555"

type repoMock struct {
	mutex       sync.RWMutex
	assessments map[string]Assessment

	returnErr error
}

func newRepoMock(all ...Assessment) *repoMock {
	m := &repoMock{
		assessments: make(map[string]Assessment),
	}
	for _, a := range all {
		m.assessments[a.ID] = a
	}
	return m
}

func (m *repoMock) Add(_ context.Context, assessment Assessment) (*Assessment, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	m.assessments[assessment.ID] = assessment
	return &assessment, nil
}

func (m *repoMock) Get(_ context.Context, id, clientID string) (*Assessment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	a, ok := m.assessments[id]
	if !ok || a.ClientID != clientID {
		return nil, ErrAssessmentNotFound
	}
	return &a, nil
}

func (m *repoMock) ListForClient(_ context.Context, clientID string) ([]Assessment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	assessments := make([]Assessment, 0)
	for _, a := range m.assessments {
		if a.ClientID == clientID {
			assessments = append(assessments, a)
		}
	}
	return assessments, nil
}

type clientsRepoMock struct {
	// client id -> owning coach id
	owners map[string]string
}

func (m *clientsRepoMock) OwnedByCoach(_ context.Context, id, coachID string) (bool, error) {
	return m.owners[id] == coachID, nil
}

func assessmentRouterForTest(
	t *testing.T,
	repo *repoMock,
	clientsRepo *clientsRepoMock,
) (*mux.Router, *metrics.Manager) {
	t.Helper()
	metricsManager := metrics.NewTestManager()
	router := mux.NewRouter()
	handler := NewHandler(repo, clientsRepo, metricsManager)
	handler.SetupRoutes(router)
	return router, metricsManager
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(auth.ContextWithCoachID(req.Context(), testCoachID))
}

func TestHandler_Add(t *testing.T) {
	clientID := uuid.NewString()
	repo := newRepoMock()
	router, metricsManager := assessmentRouterForTest(t, repo, &clientsRepoMock{
		owners: map[string]string{clientID: testCoachID},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "POST", "/clients/"+clientID+"/assessments", `{
		"bodyMetrics": {"heightCm": 170, "weightKg": 70},
		"fmsScores": {
			"deepSquat": 2, "hurdleStep": 2, "inlineLunge": 2, "shoulderMobility": 2,
			"activeStraightLegRaise": 2, "trunkStabilityPushup": 2, "rotaryStability": 2
		}
	}`))

	require.Equal(t, http.StatusCreated, rr.Code)

	var added Assessment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, clientID, added.ClientID)
	assert.False(t, added.AssessmentDate.IsZero())
	// derived snapshot is stored with the record
	require.NotNil(t, added.FMSScores)
	assert.Equal(t, 14, added.FMSScores.TotalScore)

	assert.Len(t, repo.assessments, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterAssessments))
}

func TestHandler_Add_InvalidBoundary(t *testing.T) {
	clientID := uuid.NewString()

	testCases := []struct {
		name string
		body string
	}{
		{
			name: "ScoreAboveRange",
			body: `{"fmsScores": {"deepSquat": 4}}`,
		},
		{
			name: "NegativeScore",
			body: `{"fmsScores": {"deepSquat": -1}}`,
		},
		{
			name: "NonPositiveHeight",
			body: `{"bodyMetrics": {"heightCm": 0, "weightKg": 70}}`,
		},
		{
			name: "NegativeWeight",
			body: `{"bodyMetrics": {"heightCm": 170, "weightKg": -5}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newRepoMock()
			router, metricsManager := assessmentRouterForTest(t, repo, &clientsRepoMock{
				owners: map[string]string{clientID: testCoachID},
			})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, authedRequest(t, "POST", "/clients/"+clientID+"/assessments", tc.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, repo.assessments)
			assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.CounterAssessments))
		})
	}
}

func TestHandler_Add_ForeignClient(t *testing.T) {
	clientID := uuid.NewString()
	repo := newRepoMock()
	router, _ := assessmentRouterForTest(t, repo, &clientsRepoMock{
		owners: map[string]string{clientID: uuid.NewString()},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "POST", "/clients/"+clientID+"/assessments",
		`{"bodyMetrics": {"heightCm": 170, "weightKg": 70}}`,
	))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, repo.assessments)
}

func TestHandler_List(t *testing.T) {
	clientID := uuid.NewString()
	a1 := Assessment{ID: uuid.NewString(), ClientID: clientID, AssessmentDate: time.Now()}
	a2 := Assessment{ID: uuid.NewString(), ClientID: clientID, AssessmentDate: time.Now().AddDate(0, -1, 0)}
	otherClients := Assessment{ID: uuid.NewString(), ClientID: uuid.NewString()}

	router, _ := assessmentRouterForTest(t, newRepoMock(a1, a2, otherClients), &clientsRepoMock{
		owners: map[string]string{clientID: testCoachID},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "GET", "/clients/"+clientID+"/assessments", ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var listed []Assessment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)
}

func TestHandler_Get(t *testing.T) {
	clientID := uuid.NewString()
	stored := Assessment{
		ID:             uuid.NewString(),
		ClientID:       clientID,
		AssessmentDate: time.Now(),
		FMSScores: &FMSScores{
			DeepSquat: 3, HurdleStep: 3, InlineLunge: 3, ShoulderMobility: 3,
			ActiveStraightLegRaise: 3, TrunkStabilityPushup: 3, RotaryStability: 3,
			TotalScore: 21,
		},
	}

	router, _ := assessmentRouterForTest(t, newRepoMock(stored), &clientsRepoMock{
		owners: map[string]string{clientID: testCoachID},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "GET", "/clients/"+clientID+"/assessments/"+stored.ID, ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var gotten Assessment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gotten))
	assert.Equal(t, stored.ID, gotten.ID)
	assert.Equal(t, 21, gotten.FMSScores.TotalScore)
}

func TestHandler_Preview(t *testing.T) {
	router, _ := assessmentRouterForTest(t, newRepoMock(), &clientsRepoMock{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "POST", "/assessments/preview", `{
		"bodyMetrics": {"heightCm": 170, "weightKg": 70},
		"fmsScores": {
			"deepSquat": 2, "hurdleStep": 2, "inlineLunge": 2, "shoulderMobility": 2,
			"activeStraightLegRaise": 2, "trunkStabilityPushup": 2, "rotaryStability": 2
		}
	}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var preview struct {
		BMI        *float64 `json:"bmi"`
		TotalScore *int     `json:"totalScore"`
		MaxScore   int      `json:"maxScore"`
		Risk       RiskBand `json:"risk"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &preview))

	require.NotNil(t, preview.BMI)
	assert.InDelta(t, 24.2, *preview.BMI, 0.001)
	require.NotNil(t, preview.TotalScore)
	assert.Equal(t, 14, *preview.TotalScore)
	assert.Equal(t, FMSMaxTotal, preview.MaxScore)
	assert.Equal(t, RiskModerate, preview.Risk)
}

func TestHandler_Preview_PartialInput(t *testing.T) {
	router, _ := assessmentRouterForTest(t, newRepoMock(), &clientsRepoMock{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "POST", "/assessments/preview",
		`{"bodyMetrics": {"heightCm": 170, "weightKg": 70}}`,
	))

	require.Equal(t, http.StatusOK, rr.Code)

	var preview struct {
		BMI        *float64 `json:"bmi"`
		TotalScore *int     `json:"totalScore"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &preview))
	assert.NotNil(t, preview.BMI)
	assert.Nil(t, preview.TotalScore)
}

func TestHandler_Preview_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "NothingToPreview",
			body: `{}`,
		},
		{
			name: "InvalidMeasurement",
			body: `{"bodyMetrics": {"heightCm": -170, "weightKg": 70}}`,
		},
		{
			name: "InvalidScore",
			body: `{"fmsScores": {"deepSquat": 5}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := assessmentRouterForTest(t, newRepoMock(), &clientsRepoMock{})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, authedRequest(t, "POST", "/assessments/preview", tc.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}
