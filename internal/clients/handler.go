package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/ovukovic/coachhub/internal/auth"
	"github.com/ovukovic/coachhub/internal/telemetry/tracing"
	"github.com/ovukovic/coachhub/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type repo interface {
	Add(ctx context.Context, client Client) (*Client, error)
	Get(ctx context.Context, id, coachID string) (*Client, error)
	List(ctx context.Context, coachID string) ([]Client, error)
	Update(ctx context.Context, id, coachID string, update ClientUpdate) (*Client, error)
	Delete(ctx context.Context, id, coachID string) error
}

type Handler struct {
	repo repo
}

func NewHandler(repo repo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-clients")
	router.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-client")
	router.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-client")
	router.HandleFunc("/{id}", handler.HandleUpdate).Methods("PATCH", "OPTIONS").Name("update-client")
	router.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-client")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.clients.list")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	clients, err := handler.repo.List(ctx, coachID)
	if err != nil {
		log.Errorf("list clients: %s", err)
		http.Error(w, "failed to list clients", http.StatusInternalServerError)
		return
	}

	clientsJson, err := json.Marshal(clients)
	if err != nil {
		log.Errorf("marshal clients error: %s", err)
		http.Error(w, "marshal clients error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, clientsJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.clients.get")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	client, err := handler.repo.Get(ctx, id, coachID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("get client %s: %s", id, err)
		http.Error(w, "failed to get client", http.StatusInternalServerError)
		return
	}

	clientJson, err := json.Marshal(client)
	if err != nil {
		log.Errorf("marshal client error: %s", err)
		http.Error(w, "marshal client error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, clientJson, http.StatusOK)
}

type addClientRequest struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Notes       string     `json:"notes"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.clients.add")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req addClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add client, unmarshal json params: %s", err)
		http.Error(w, "add client failed", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		http.Error(w, "error, client name empty", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		http.Error(w, "error, client email invalid", http.StatusBadRequest)
		return
	}

	now := time.Now()
	client := Client{
		ID:          uuid.NewString(),
		CoachID:     coachID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       strings.TrimSpace(req.Phone),
		DateOfBirth: req.DateOfBirth,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	addedClient, err := handler.repo.Add(ctx, client)
	if err != nil {
		log.Errorf("failed to add new client: %s", err)
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "client with this email exists", http.StatusConflict)
			return
		}
		http.Error(w, "error, failed to add new client", http.StatusInternalServerError)
		return
	}

	clientJson, err := json.Marshal(addedClient)
	if err != nil {
		log.Errorf("marshal client error: %s", err)
		http.Error(w, "marshal client error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, clientJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.clients.update")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	var update ClientUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Errorf("update client, unmarshal json params: %s", err)
		http.Error(w, "update client failed", http.StatusBadRequest)
		return
	}

	if update.Empty() {
		http.Error(w, "error, nothing to update", http.StatusBadRequest)
		return
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		http.Error(w, "error, client name empty", http.StatusBadRequest)
		return
	}
	if update.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*update.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			http.Error(w, "error, client email invalid", http.StatusBadRequest)
			return
		}
		update.Email = &email
	}

	updatedClient, err := handler.repo.Update(ctx, id, coachID, update)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("update client %s: %s", id, err)
		http.Error(w, "failed to update client", http.StatusInternalServerError)
		return
	}

	clientJson, err := json.Marshal(updatedClient)
	if err != nil {
		log.Errorf("marshal client error: %s", err)
		http.Error(w, "marshal client error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, clientJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.clients.delete")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id, coachID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete client %s: %s", id, err)
		http.Error(w, "failed to delete client", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted:"+id)
}
