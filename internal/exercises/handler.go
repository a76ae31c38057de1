package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
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
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Get(ctx context.Context, id, coachID string) (*Exercise, error)
	List(ctx context.Context, coachID string, category Category) ([]Exercise, error)
	Update(ctx context.Context, id, coachID string, update ExerciseUpdate, aiTags *[]string) (*Exercise, error)
	Delete(ctx context.Context, id, coachID string) error
}

type tagGenerator interface {
	GenerateExerciseTags(ctx context.Context, name, description, category string) ([]string, error)
}

type Handler struct {
	repo         repo
	tagGenerator tagGenerator
}

func NewHandler(repo repo, tagGenerator tagGenerator) *Handler {
	return &Handler{
		repo:         repo,
		tagGenerator: tagGenerator,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	router.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-exercise")
	router.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")
	router.HandleFunc("/{id}", handler.HandleUpdate).Methods("PATCH", "OPTIONS").Name("update-exercise")
	router.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-exercise")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	category := Category(r.URL.Query().Get("category"))
	if category != "" {
		if err := category.Validate(); err != nil {
			http.Error(w, "invalid category", http.StatusBadRequest)
			return
		}
	}

	exercises, err := handler.repo.List(ctx, coachID, category)
	if err != nil {
		log.Errorf("list exercises: %s", err)
		http.Error(w, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	exercisesJson, err := json.Marshal(exercises)
	if err != nil {
		log.Errorf("marshal exercises error: %s", err)
		http.Error(w, "marshal exercises error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exercisesJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
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

	exercise, err := handler.repo.Get(ctx, id, coachID)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("get exercise %s: %s", id, err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	exerciseJson, err := json.Marshal(exercise)
	if err != nil {
		log.Errorf("marshal exercise error: %s", err)
		http.Error(w, "marshal exercise error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exerciseJson, http.StatusOK)
}

type addExerciseRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Equipment   []string `json:"equipment"`
	ManualTags  []string `json:"manualTags"`
	YoutubeURL  string   `json:"youtubeUrl"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req addExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}
	if err := req.Category.Validate(); err != nil {
		http.Error(w, "invalid category", http.StatusBadRequest)
		return
	}

	aiTags := handler.generateAITags(ctx, req.Name, req.Description, string(req.Category))

	now := time.Now()
	exercise := Exercise{
		ID:          uuid.NewString(),
		CoachID:     coachID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Equipment:   emptyIfNil(req.Equipment),
		ManualTags:  emptyIfNil(req.ManualTags),
		AITags:      aiTags,
		YoutubeURL:  req.YoutubeURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	addedExercise, err := handler.repo.Add(ctx, exercise)
	if err != nil {
		log.Errorf("failed to add new exercise: %s", err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}

	exerciseJson, err := json.Marshal(addedExercise)
	if err != nil {
		log.Errorf("marshal exercise error: %s", err)
		http.Error(w, "marshal exercise error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exerciseJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
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

	var update ExerciseUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Errorf("update exercise, unmarshal json params: %s", err)
		http.Error(w, "update exercise failed", http.StatusBadRequest)
		return
	}

	if update.Empty() {
		http.Error(w, "error, nothing to update", http.StatusBadRequest)
		return
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}
	if update.Category != nil {
		if err := update.Category.Validate(); err != nil {
			http.Error(w, "invalid category", http.StatusBadRequest)
			return
		}
	}

	var aiTags *[]string
	if update.NeedsNewAITags() {
		current, err := handler.repo.Get(ctx, id, coachID)
		if err != nil {
			if errors.Is(err, ErrExerciseNotFound) {
				http.Error(w, "exercise not found", http.StatusNotFound)
				return
			}
			log.Errorf("update exercise %s: %s", id, err)
			http.Error(w, "failed to update exercise", http.StatusInternalServerError)
			return
		}

		name := current.Name
		if update.Name != nil {
			name = *update.Name
		}
		description := current.Description
		if update.Description != nil {
			description = *update.Description
		}
		category := current.Category
		if update.Category != nil {
			category = *update.Category
		}

		newTags := handler.generateAITags(ctx, name, description, string(category))
		aiTags = &newTags
	}

	updatedExercise, err := handler.repo.Update(ctx, id, coachID, update, aiTags)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("update exercise %s: %s", id, err)
		http.Error(w, "failed to update exercise", http.StatusInternalServerError)
		return
	}

	exerciseJson, err := json.Marshal(updatedExercise)
	if err != nil {
		log.Errorf("marshal exercise error: %s", err)
		http.Error(w, "marshal exercise error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exerciseJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
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
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete exercise %s: %s", id, err)
		http.Error(w, "failed to delete exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted:"+id)
}

// generateAITags never fails the request, a broken LLM just means no AI tags.
func (handler *Handler) generateAITags(ctx context.Context, name, description, category string) []string {
	tags, err := handler.tagGenerator.GenerateExerciseTags(ctx, name, description, category)
	if err != nil {
		log.Warnf("generate ai tags for [%s]: %s", name, err)
		return make([]string, 0)
	}
	if tags == nil {
		tags = make([]string, 0)
	}
	return tags
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return make([]string, 0)
	}
	return s
}
