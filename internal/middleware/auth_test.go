package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ovukovic/coachhub/internal/auth"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockTokenChecker := NewMocktokenChecker(ctrl)
	authMiddleware := NewAuthMiddlewareHandler(mockTokenChecker)

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		expectedStatusCode int
		mockCoachID        string
		mockCheckErr       error
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/auth/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "VersionWithoutToken",
			path:               "/version",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathWithoutToken",
			path:               "/clients",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/clients",
			method:             "GET",
			token:              "valid-token",
			expectedStatusCode: http.StatusOK,
			mockCoachID:        "coach-1",
		},
		{
			name:               "InvalidToken",
			path:               "/clients",
			method:             "GET",
			token:              "invalid-token",
			expectedStatusCode: http.StatusUnauthorized,
			mockCheckErr:       auth.ErrNotLoggedIn,
		},
		{
			name:               "OptionsPreflightAlwaysAllowed",
			path:               "/clients",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			assert.NoError(t, err)
			if tc.token != "" {
				req.Header.Add("Authorization", "Bearer "+tc.token)
				mockTokenChecker.EXPECT().
					CheckToken(gomock.Any(), tc.token).
					Return(tc.mockCoachID, tc.mockCheckErr).AnyTimes()
			}

			var coachIDInContext string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				coachIDInContext, _ = auth.CoachIDFromContext(r.Context())
			})

			rr := httptest.NewRecorder()
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.mockCoachID != "" {
				assert.Equal(t, tc.mockCoachID, coachIDInContext)
			}
		})
	}
}
