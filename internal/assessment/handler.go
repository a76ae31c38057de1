package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ovukovic/coachhub/internal/auth"
	"github.com/ovukovic/coachhub/internal/telemetry/metrics"
	"github.com/ovukovic/coachhub/internal/telemetry/tracing"
	"github.com/ovukovic/coachhub/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type repo interface {
	Add(ctx context.Context, assessment Assessment) (*Assessment, error)
	Get(ctx context.Context, id, clientID string) (*Assessment, error)
	ListForClient(ctx context.Context, clientID string) ([]Assessment, error)
}

type clientsRepo interface {
	OwnedByCoach(ctx context.Context, id, coachID string) (bool, error)
}

type Handler struct {
	repo        repo
	clientsRepo clientsRepo
	metrics     *metrics.Manager
}

func NewHandler(repo repo, clientsRepo clientsRepo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:        repo,
		clientsRepo: clientsRepo,
		metrics:     metrics,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	assessmentsRouter := router.PathPrefix("/clients/{clientId}/assessments").Subrouter()
	assessmentsRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-assessments")
	assessmentsRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-assessment")
	assessmentsRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-assessment")

	// stateless metrics preview backing the live assessment form
	router.HandleFunc("/assessments/preview", handler.HandlePreview).Methods("POST", "OPTIONS").Name("preview-assessment")
}

// clientForRequest resolves the client ID from the path and checks it
// belongs to the authenticated coach. Foreign clients yield a 404.
func (handler *Handler) clientForRequest(w http.ResponseWriter, r *http.Request, ctx context.Context) (string, bool) {
	coachID, ok := auth.CoachIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return "", false
	}

	clientID := mux.Vars(r)["clientId"]
	if clientID == "" {
		http.Error(w, "error, client id empty", http.StatusBadRequest)
		return "", false
	}

	owned, err := handler.clientsRepo.OwnedByCoach(ctx, clientID, coachID)
	if err != nil {
		log.Errorf("assessment ownership check for client %s: %s", clientID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return "", false
	}
	if !owned {
		http.Error(w, "client not found", http.StatusNotFound)
		return "", false
	}

	return clientID, true
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.assessment.list")
	defer span.End()

	clientID, ok := handler.clientForRequest(w, r, ctx)
	if !ok {
		return
	}

	assessments, err := handler.repo.ListForClient(ctx, clientID)
	if err != nil {
		log.Errorf("list assessments for client %s: %s", clientID, err)
		http.Error(w, "failed to list assessments", http.StatusInternalServerError)
		return
	}

	assessmentsJson, err := json.Marshal(assessments)
	if err != nil {
		log.Errorf("marshal assessments error: %s", err)
		http.Error(w, "marshal assessments error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, assessmentsJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.assessment.get")
	defer span.End()

	clientID, ok := handler.clientForRequest(w, r, ctx)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	clientAssessment, err := handler.repo.Get(ctx, id, clientID)
	if err != nil {
		if errors.Is(err, ErrAssessmentNotFound) {
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		}
		log.Errorf("get assessment %s: %s", id, err)
		http.Error(w, "failed to get assessment", http.StatusInternalServerError)
		return
	}

	assessmentJson, err := json.Marshal(clientAssessment)
	if err != nil {
		log.Errorf("marshal assessment error: %s", err)
		http.Error(w, "marshal assessment error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, assessmentJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.assessment.add")
	defer span.End()

	clientID, ok := handler.clientForRequest(w, r, ctx)
	if !ok {
		return
	}

	var clientAssessment Assessment
	if err := json.NewDecoder(r.Body).Decode(&clientAssessment); err != nil {
		log.Errorf("add assessment, unmarshal json params: %s", err)
		http.Error(w, "add assessment failed", http.StatusBadRequest)
		return
	}

	if err := clientAssessment.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	clientAssessment.ID = uuid.NewString()
	clientAssessment.ClientID = clientID
	clientAssessment.CreatedAt = time.Now()
	if clientAssessment.AssessmentDate.IsZero() {
		clientAssessment.AssessmentDate = clientAssessment.CreatedAt
	}

	// snapshot of the derived values lives with the record
	if err := clientAssessment.FillDerived(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	addedAssessment, err := handler.repo.Add(ctx, clientAssessment)
	if err != nil {
		log.Errorf("failed to add new assessment: %s", err)
		http.Error(w, "error, failed to add new assessment", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterAssessments.Inc()

	assessmentJson, err := json.Marshal(addedAssessment)
	if err != nil {
		log.Errorf("marshal assessment error: %s", err)
		http.Error(w, "marshal assessment error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, assessmentJson, http.StatusCreated)
}

type previewRequest struct {
	BodyMetrics *BodyMetrics `json:"bodyMetrics"`
	FMSScores   *FMSScores   `json:"fmsScores"`
}

type previewResponse struct {
	BMI        *float64 `json:"bmi,omitempty"`
	TotalScore *int     `json:"totalScore,omitempty"`
	MaxScore   int      `json:"maxScore"`
	Risk       RiskBand `json:"risk,omitempty"`
}

// HandlePreview computes BMI, FMS total and risk band from the request
// body without persisting anything. Backs the live form feedback.
func (handler *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.assessment.preview")
	defer span.End()

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("assessment preview, unmarshal json params: %s", err)
		http.Error(w, "assessment preview failed", http.StatusBadRequest)
		return
	}

	if req.BodyMetrics == nil && req.FMSScores == nil {
		http.Error(w, "error, nothing to preview", http.StatusBadRequest)
		return
	}

	resp := previewResponse{
		MaxScore: FMSMaxTotal,
	}

	if req.BodyMetrics != nil {
		bmi, err := req.BodyMetrics.BMI()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp.BMI = &bmi
	}

	if req.FMSScores != nil {
		total, err := req.FMSScores.Total()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp.TotalScore = &total
		resp.Risk = ClassifyRisk(total)
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal assessment preview error: %s", err)
		http.Error(w, "marshal assessment preview error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
