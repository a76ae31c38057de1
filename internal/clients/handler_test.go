package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ovukovic/coachhub/internal/auth"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testCoachID = "7a1c9a44-0000-1111-2222-333344445555"

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m)
}

func clientsRouterForTest(t *testing.T, repo *repoMock) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	handler := NewHandler(repo)
	handler.SetupRoutes(router.PathPrefix("/clients").Subrouter())
	return router
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

func testClient(coachID string) Client {
	now := time.Now()
	return Client{
		ID:        uuid.NewString(),
		CoachID:   coachID,
		Name:      gofakeit.Name(),
		Email:     strings.ToLower(gofakeit.Email()),
		Phone:     gofakeit.Phone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHandler_List(t *testing.T) {
	c1 := testClient(testCoachID)
	c2 := testClient(testCoachID)
	otherCoachClient := testClient(uuid.NewString())
	router := clientsRouterForTest(t, newRepoMock(c1, c2, otherCoachClient))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "GET", "/clients", ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var clients []Client
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &clients))
	assert.Len(t, clients, 2)
	for _, c := range clients {
		assert.Equal(t, testCoachID, c.CoachID)
	}
}

func TestHandler_List_Unauthorized(t *testing.T) {
	router := clientsRouterForTest(t, newRepoMock())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/clients", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_Get(t *testing.T) {
	client := testClient(testCoachID)
	router := clientsRouterForTest(t, newRepoMock(client))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "GET", "/clients/"+client.ID, ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var gotten Client
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gotten))
	assert.Equal(t, client.ID, gotten.ID)
	assert.Equal(t, client.Email, gotten.Email)
}

func TestHandler_Get_OtherCoachesClient(t *testing.T) {
	otherCoachClient := testClient(uuid.NewString())
	router := clientsRouterForTest(t, newRepoMock(otherCoachClient))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "GET", "/clients/"+otherCoachClient.ID, ""))

	// scoped by coach, other coaches see a 404 and not a 403
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Add(t *testing.T) {
	repo := newRepoMock()
	router := clientsRouterForTest(t, repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "POST", "/clients",
		`{"name": "Mia Muster", "email": "Mia@Example.com", "phone": "+49 170 1111111"}`,
	))

	require.Equal(t, http.StatusCreated, rr.Code)

	var added Client
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, testCoachID, added.CoachID)
	assert.Equal(t, "Mia Muster", added.Name)
	// email is normalized to lowercase
	assert.Equal(t, "mia@example.com", added.Email)
	assert.Len(t, repo.clients, 1)
}

func TestHandler_Add_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "EmptyName",
			body: `{"name": "  ", "email": "mia@example.com"}`,
		},
		{
			name: "InvalidEmail",
			body: `{"name": "Mia Muster", "email": "not-an-email"}`,
		},
		{
			name: "EmptyEmail",
			body: `{"name": "Mia Muster"}`,
		},
		{
			name: "Garbage",
			body: `{{{{`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newRepoMock()
			router := clientsRouterForTest(t, repo)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, authedRequest(t, "POST", "/clients", tc.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, repo.clients)
		})
	}
}

func TestHandler_Update(t *testing.T) {
	client := testClient(testCoachID)
	repo := newRepoMock(client)
	router := clientsRouterForTest(t, repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "PATCH", "/clients/"+client.ID,
		`{"name": "New Name", "notes": "injured knee, go easy"}`,
	))

	require.Equal(t, http.StatusOK, rr.Code)

	var updated Client
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "injured knee, go easy", updated.Notes)
	// untouched fields stay as they were
	assert.Equal(t, client.Email, updated.Email)
}

func TestHandler_Update_NothingToUpdate(t *testing.T) {
	client := testClient(testCoachID)
	router := clientsRouterForTest(t, newRepoMock(client))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "PATCH", "/clients/"+client.ID, `{}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Delete(t *testing.T) {
	client := testClient(testCoachID)
	repo := newRepoMock(client)
	router := clientsRouterForTest(t, repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "DELETE", "/clients/"+client.ID, ""))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, fmt.Sprintf("deleted:%s", client.ID), rr.Body.String())
	assert.Empty(t, repo.clients)
}

func TestHandler_Delete_NotFound(t *testing.T) {
	router := clientsRouterForTest(t, newRepoMock())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, "DELETE", "/clients/"+uuid.NewString(), ""))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
