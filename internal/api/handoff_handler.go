package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/handoff-api/internal/api/shared"
	"github.com/atelierhq/handoff-api/internal/domain"
	"github.com/atelierhq/handoff-api/internal/service"
	"github.com/atelierhq/handoff-api/internal/store"
)

// HandoffHandler handles the task queue HTTP endpoints.
type HandoffHandler struct {
	handoffService service.HandoffService
}

// NewHandoffHandler creates a new HandoffHandler.
func NewHandoffHandler(handoffService service.HandoffService) *HandoffHandler {
	return &HandoffHandler{
		handoffService: handoffService,
	}
}

// requireActor extracts the acting identity from the context or writes
// a 400 response and returns false.
func (h *HandoffHandler) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := shared.GetActor(r.Context())
	if actor == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"X-Handoff-User header is required")
		return "", false
	}
	return actor, true
}

// respondServiceError maps a service-layer error onto the wire.
// ErrNoTasksAvailable becomes an empty 204 rather than an error body.
func (h *HandoffHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}

// CreateTask handles POST /api/handoff/tasks requests.
func (h *HandoffHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.handoffService.CreateTask(r.Context(), service.CreateTaskParams{
		Instruction:         req.Instruction,
		Context:             req.Context,
		Priority:            domain.Priority(req.Priority),
		ProjectName:         req.ProjectName,
		ParentTaskID:        req.ParentTaskID,
		EstimatedComplexity: domain.Complexity(req.EstimatedComplexity),
		FilesNeeded:         req.FilesNeeded,
		CreatedBy:           actor,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// ListTasks handles GET /api/handoff/tasks requests.
func (h *HandoffHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Status:      domain.TaskStatus(r.URL.Query().Get("status")),
		ProjectName: r.URL.Query().Get("project"),
		Priority:    domain.Priority(r.URL.Query().Get("priority")),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = limit
	}

	tasks, err := h.handoffService.ListQueue(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

// GetTask handles GET /api/handoff/tasks/{ref} requests. The ref is a
// full task ID or a unique fragment of one.
func (h *HandoffHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	task, err := h.handoffService.GetTask(r.Context(), ref)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateTask handles PATCH /api/handoff/tasks/{ref} requests.
func (h *HandoffHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.handoffService.UpdateTask(r.Context(), ref, req.Fields())
	if errors.Is(err, store.ErrNoChange) {
		// Nothing to apply; return the task as it stands.
		task, err = h.handoffService.GetTask(r.Context(), ref)
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ClaimNext handles POST /api/handoff/tasks/claim requests. An empty
// queue yields 204 No Content.
func (h *HandoffHandler) ClaimNext(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	req := ClaimNextRequest{}
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if err := shared.ValidateRequest(req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
			return
		}
	}

	task, err := h.handoffService.ClaimNextTask(r.Context(), store.ClaimFilter{
		Priority:    store.PriorityFilter(req.PriorityFilter),
		ProjectName: req.ProjectName,
	}, actor)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ClaimTask handles POST /api/handoff/tasks/{ref}/claim requests.
// Claiming an already-claimed task reassigns it (manual takeover).
func (h *HandoffHandler) ClaimTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	ref := chi.URLParam(r, "ref")

	task, err := h.handoffService.ClaimTask(r.Context(), ref, actor)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateProgress handles POST /api/handoff/tasks/{ref}/progress requests.
func (h *HandoffHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	var req ProgressRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.handoffService.UpdateProgress(r.Context(), ref, req.Note)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// CompleteTask handles POST /api/handoff/tasks/{ref}/complete requests.
func (h *HandoffHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	var req CompleteTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.handoffService.CompleteTask(r.Context(), ref, req.Record())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// BlockTask handles POST /api/handoff/tasks/{ref}/block requests.
func (h *HandoffHandler) BlockTask(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	var req BlockTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.handoffService.BlockTask(r.Context(), ref, req.Reason)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// MyTasks handles GET /api/handoff/mine requests, returning the
// caller's claimed and in-progress tasks.
func (h *HandoffHandler) MyTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	tasks, err := h.handoffService.MyTasks(r.Context(), actor)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

// Results handles GET /api/handoff/results requests, returning
// completed tasks newest first.
func (h *HandoffHandler) Results(w http.ResponseWriter, r *http.Request) {
	filter := store.ResultsFilter{
		TaskRef:     r.URL.Query().Get("task"),
		ProjectName: r.URL.Query().Get("project"),
	}
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Invalid since parameter, expected RFC 3339 timestamp")
			return
		}
		filter.Since = &since
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = limit
	}

	tasks, err := h.handoffService.Results(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

// ListProjects handles GET /api/handoff/projects requests.
func (h *HandoffHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.handoffService.ListProjects(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectSummariesToResponse(projects))
}

// ProjectStatus handles GET /api/handoff/projects/{name} requests.
func (h *HandoffHandler) ProjectStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	status, err := h.handoffService.ProjectStatus(r.Context(), name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}
