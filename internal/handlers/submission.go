package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge/judge-api/internal/mq"
	"github.com/jjudge/judge-api/internal/services"
	"github.com/jjudge/judge-api/internal/store"
	"github.com/jjudge/judge-api/types"
)

// SubmissionHandler provides the stateful submission endpoints: queueing a
// submission for asynchronous judging and reading back its result.
type SubmissionHandler struct {
	submissionService *services.SubmissionService
	problemService    *services.ProblemService
	userService       *services.UserService
	queue             *mq.MQ
	queueName         string
}

// NewSubmissionHandler constructs a SubmissionHandler with its dependencies.
func NewSubmissionHandler(
	submissionService *services.SubmissionService,
	problemService *services.ProblemService,
	userService *services.UserService,
	queue *mq.MQ,
	queueName string,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		problemService:    problemService,
		userService:       userService,
		queue:             queue,
		queueName:         queueName,
	}
}

// SubmissionRouter registers the stateful submission routes.
func SubmissionRouter(
	r chi.Router,
	submissionService *services.SubmissionService,
	problemService *services.ProblemService,
	userService *services.UserService,
	queue *mq.MQ,
	queueName string,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewSubmissionHandler(submissionService, problemService, userService, queue, queueName)

	r.Route("/problems/{problemID}/submissions", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/", handler.Create)
	})
	r.Route("/submissions/{id}", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Get("/", handler.Get)
	})
}

// CreateSubmissionRequest is the payload accepted to queue a submission.
type CreateSubmissionRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// CreateSubmissionResponse acknowledges a queued submission.
type CreateSubmissionResponse struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	problemID, err := parseProblemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Language = strings.TrimSpace(req.Language)
	if strings.TrimSpace(req.Code) == "" || req.Language == "" {
		writeError(w, http.StatusBadRequest, "code and language are required")
		return
	}

	if _, err := h.problemService.Get(r.Context(), problemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch problem")
		return
	}

	created, err := h.submissionService.Create(r.Context(), types.Submission{
		ProblemID: problemID,
		UserID:    userID,
		Code:      req.Code,
		Language:  req.Language,
		Verdict:   types.VerdictPending,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create submission")
		return
	}

	job := types.SubmissionJob{
		SubmissionID: int64(created.ID),
		ProblemID:    created.ProblemID,
		Language:     created.Language,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to queue submission")
		return
	}
	if _, err := h.queue.Publish(r.Context(), h.queueName, payload, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to queue submission")
		return
	}

	writeJSON(w, http.StatusAccepted, CreateSubmissionResponse{ID: created.ID, Status: "queued"})
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseSubmissionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	submission, err := h.submissionService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch submission")
		return
	}

	if submission.UserID != userID {
		user, err := h.userService.GetByID(r.Context(), userID)
		if err != nil || !strings.EqualFold(user.Role, adminRole) {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
	}

	problem, err := h.problemService.Get(r.Context(), submission.ProblemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch problem")
		return
	}

	writeJSON(w, http.StatusOK, redactSubmission(submission, hiddenTestcaseIDs(problem)))
}

func parseSubmissionID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid submission id")
	}
	return id, nil
}
