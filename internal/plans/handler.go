package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ovukovic/coachhub/internal/assessment"
	"github.com/ovukovic/coachhub/internal/auth"
	"github.com/ovukovic/coachhub/internal/clients"
	"github.com/ovukovic/coachhub/internal/coaches"
	"github.com/ovukovic/coachhub/internal/exercises"
	"github.com/ovukovic/coachhub/internal/telemetry/metrics"
	"github.com/ovukovic/coachhub/internal/telemetry/tracing"
	"github.com/ovukovic/coachhub/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type repo interface {
	Add(ctx context.Context, plan Plan) (*Plan, error)
	Get(ctx context.Context, id, coachID string) (*Plan, error)
	List(ctx context.Context, coachID, clientID string) ([]Plan, error)
	Update(ctx context.Context, id, coachID string, update PlanUpdate) (*Plan, error)
}

type clientsRepo interface {
	Get(ctx context.Context, id, coachID string) (*clients.Client, error)
}

type assessmentsRepo interface {
	Get(ctx context.Context, id, clientID string) (*assessment.Assessment, error)
}

type exercisesRepo interface {
	List(ctx context.Context, coachID string, category exercises.Category) ([]exercises.Exercise, error)
}

type coachesRepo interface {
	Get(ctx context.Context, id string) (*coaches.Coach, error)
}

type planGenerator interface {
	Generate(ctx context.Context, params GenerateParams) (*Plan, error)
}

type emailSender interface {
	Enabled() bool
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

type Handler struct {
	repo            repo
	clientsRepo     clientsRepo
	assessmentsRepo assessmentsRepo
	exercisesRepo   exercisesRepo
	coachesRepo     coachesRepo
	planner         planGenerator
	emailSender     emailSender
	metrics         *metrics.Manager
}

func NewHandler(
	repo repo,
	clientsRepo clientsRepo,
	assessmentsRepo assessmentsRepo,
	exercisesRepo exercisesRepo,
	coachesRepo coachesRepo,
	planner planGenerator,
	emailSender emailSender,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		repo:            repo,
		clientsRepo:     clientsRepo,
		assessmentsRepo: assessmentsRepo,
		exercisesRepo:   exercisesRepo,
		coachesRepo:     coachesRepo,
		planner:         planner,
		emailSender:     emailSender,
		metrics:         metrics,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-plans")
	router.HandleFunc("/generate", handler.HandleGenerate).Methods("POST", "OPTIONS").Name("generate-plan")
	router.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	router.HandleFunc("/{id}", handler.HandleUpdate).Methods("PATCH", "OPTIONS").Name("update-plan")
	router.HandleFunc("/{id}/send-email", handler.HandleSendEmail).Methods("POST", "OPTIONS").Name("send-plan-email")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.list")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	clientID := r.URL.Query().Get("clientId")

	plansFound, err := handler.repo.List(ctx, coachID, clientID)
	if err != nil {
		log.Errorf("list plans: %s", err)
		http.Error(w, "failed to list plans", http.StatusInternalServerError)
		return
	}

	plansJson, err := json.Marshal(plansFound)
	if err != nil {
		log.Errorf("marshal plans error: %s", err)
		http.Error(w, "marshal plans error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, plansJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.get")
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

	plan, err := handler.repo.Get(ctx, id, coachID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("get plan %s: %s", id, err)
		http.Error(w, "failed to get plan", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("marshal plan error: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}

type generatePlanRequest struct {
	ClientID     string           `json:"clientId"`
	AssessmentID string           `json:"assessmentId"`
	Preferences  CoachPreferences `json:"preferences"`
}

func (handler *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.generate")
	defer span.End()

	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("generate plan, unmarshal json params: %s", err)
		http.Error(w, "generate plan failed", http.StatusBadRequest)
		return
	}

	if req.ClientID == "" || req.AssessmentID == "" {
		http.Error(w, "error, clientId and assessmentId required", http.StatusBadRequest)
		return
	}

	client, err := handler.clientsRepo.Get(ctx, req.ClientID, coachID)
	if err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		log.Errorf("generate plan, get client %s: %s", req.ClientID, err)
		http.Error(w, "failed to generate plan", http.StatusInternalServerError)
		return
	}

	clientAssessment, err := handler.assessmentsRepo.Get(ctx, req.AssessmentID, client.ID)
	if err != nil {
		if errors.Is(err, assessment.ErrAssessmentNotFound) {
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		}
		log.Errorf("generate plan, get assessment %s: %s", req.AssessmentID, err)
		http.Error(w, "failed to generate plan", http.StatusInternalServerError)
		return
	}

	coach, err := handler.coachesRepo.Get(ctx, coachID)
	if err != nil {
		log.Errorf("generate plan, get coach %s: %s", coachID, err)
		http.Error(w, "failed to generate plan", http.StatusInternalServerError)
		return
	}

	exerciseLibrary, err := handler.exercisesRepo.List(ctx, coachID, "")
	if err != nil {
		log.Errorf("generate plan, list exercises: %s", err)
		http.Error(w, "failed to generate plan", http.StatusInternalServerError)
		return
	}

	plan, err := handler.planner.Generate(ctx, GenerateParams{
		Assessment:      clientAssessment,
		ClientName:      client.Name,
		CoachPhilosophy: coach.TrainingPhilosophy,
		Preferences:     req.Preferences,
		Exercises:       exerciseLibrary,
	})
	if err != nil {
		log.Errorf("generate plan for client %s: %s", client.ID, err)
		http.Error(w, "failed to generate plan", http.StatusInternalServerError)
		return
	}
	plan.CoachID = coachID

	addedPlan, err := handler.repo.Add(ctx, *plan)
	if err != nil {
		log.Errorf("store generated plan: %s", err)
		http.Error(w, "failed to store generated plan", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(addedPlan)
	if err != nil {
		log.Errorf("marshal plan error: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.update")
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

	var update PlanUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Errorf("update plan, unmarshal json params: %s", err)
		http.Error(w, "update plan failed", http.StatusBadRequest)
		return
	}

	if update.Empty() {
		http.Error(w, "error, nothing to update", http.StatusBadRequest)
		return
	}
	if update.Status != nil {
		if err := update.Status.Validate(); err != nil {
			http.Error(w, "invalid plan status", http.StatusBadRequest)
			return
		}
	}

	updatedPlan, err := handler.repo.Update(ctx, id, coachID, update)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("update plan %s: %s", id, err)
		http.Error(w, "failed to update plan", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(updatedPlan)
	if err != nil {
		log.Errorf("marshal plan error: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}

// HandleSendEmail mails the rendered plan to the coach and the client,
// then promotes a draft plan to active. Email failure leaves the plan
// untouched.
func (handler *Handler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.sendemail")
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

	if !handler.emailSender.Enabled() {
		http.Error(w, "email sending not configured", http.StatusBadGateway)
		return
	}

	plan, err := handler.repo.Get(ctx, id, coachID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("send plan email, get plan %s: %s", id, err)
		http.Error(w, "failed to send plan email", http.StatusInternalServerError)
		return
	}

	client, err := handler.clientsRepo.Get(ctx, plan.ClientID, coachID)
	if err != nil {
		log.Errorf("send plan email, get client %s: %s", plan.ClientID, err)
		http.Error(w, "failed to send plan email", http.StatusInternalServerError)
		return
	}

	coach, err := handler.coachesRepo.Get(ctx, coachID)
	if err != nil {
		log.Errorf("send plan email, get coach %s: %s", coachID, err)
		http.Error(w, "failed to send plan email", http.StatusInternalServerError)
		return
	}

	planHtml, err := RenderPlanHTML(plan, client.Name, coach.Name)
	if err != nil {
		log.Errorf("send plan email, render plan %s: %s", id, err)
		http.Error(w, "failed to render plan email", http.StatusInternalServerError)
		return
	}

	subject := fmt.Sprintf("Your training plan: %s", plan.Title)
	if err := handler.emailSender.Send(ctx, []string{client.Email, coach.Email}, subject, planHtml); err != nil {
		log.Errorf("send plan email %s: %s", id, err)
		http.Error(w, "failed to send plan email", http.StatusBadGateway)
		return
	}

	handler.metrics.CounterPlanEmailsSent.Inc()

	if plan.Status == StatusDraft {
		activeStatus := StatusActive
		plan, err = handler.repo.Update(ctx, id, coachID, PlanUpdate{Status: &activeStatus})
		if err != nil {
			log.Errorf("send plan email, activate plan %s: %s", id, err)
			http.Error(w, "plan email sent, failed to activate plan", http.StatusInternalServerError)
			return
		}
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("marshal plan error: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}
