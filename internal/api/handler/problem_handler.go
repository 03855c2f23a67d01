package handler

import (
	"net/http"

	"codedojo/internal/api/middleware"
	"codedojo/internal/app/service"
	"codedojo/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
	gradingService *service.GradingService
}

func NewProblemHandler(ps *service.ProblemService, gs *service.GradingService) *ProblemHandler {
	return &ProblemHandler{problemService: ps, gradingService: gs}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireUser)
	r.Get("/", h.listProblems)
	r.Get("/{problemID}", h.getProblem)
	r.Post("/{problemID}/solve", h.solveProblem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	items, err := h.problemService.ListForUser(r.Context(), user.ID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problemID, ok := pathUUID(w, r, "problemID")
	if !ok {
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())
	detail, err := h.problemService.GetForUser(r.Context(), problemID, user.ID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *ProblemHandler) solveProblem(w http.ResponseWriter, r *http.Request) {
	problemID, ok := pathUUID(w, r, "problemID")
	if !ok {
		return
	}
	var req service.SolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())
	verdicts, err := h.gradingService.Solve(r.Context(), user, problemID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, verdicts)
}
