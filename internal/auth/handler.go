package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ovukovic/coachhub/internal/telemetry/metrics"
	"github.com/ovukovic/coachhub/pkg"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// LoginCoach is the coach projection returned to the frontend on login.
type LoginCoach struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	Coach LoginCoach `json:"coach"`
}

type Handler struct {
	authService    *Service
	loginLimiter   *redis_rate.Limiter
	loginRateLimit int
	metrics        *metrics.Manager
}

func NewHandler(
	authService *Service,
	loginLimiter *redis_rate.Limiter,
	loginRateLimitAllowedPerMin int,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		authService:    authService,
		loginLimiter:   loginLimiter,
		loginRateLimit: loginRateLimitAllowedPerMin,
		metrics:        metrics,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.handleLogin).Methods("POST", "OPTIONS").Name("login")
	router.HandleFunc("/auth/logout", h.handleLogout).Methods("POST", "OPTIONS").Name("logout")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.loginLimiter != nil {
		reqIp, _ := pkg.ReadUserIP(r)
		limiterKey := fmt.Sprintf("login-attempts||%s", reqIp)
		limitRes, err := h.loginLimiter.Allow(r.Context(), limiterKey, redis_rate.PerMinute(h.loginRateLimit))
		if err != nil {
			log.Errorf("login rate limiter: %s", err)
		} else if limitRes.Allowed <= 0 {
			h.metrics.CounterRateLimitedRequests.Inc()
			http.Error(w, "too many login attempts", http.StatusTooManyRequests)
			return
		}
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid login request", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	token, coach, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("login failed for %s: %s", req.Email, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := loginResponse{
		Token: token,
		Coach: LoginCoach{
			ID:    coach.ID,
			Email: coach.Email,
			Name:  coach.Name,
		},
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal login response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Tracef("coach [%s] logged in", coach.Email)

	pkg.WriteJSONResponseOK(w, string(respBytes))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "no token", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		log.Errorf("logout: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
