package handler

import (
	"net/http"

	"codedojo/internal/api/middleware"
	"codedojo/internal/app/service"
	"codedojo/internal/common"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	problemService *service.ProblemService
}

func NewAdminHandler(ps *service.ProblemService) *AdminHandler {
	return &AdminHandler{problemService: ps}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireUser)
	r.Use(middleware.AdminOnly)
	r.Post("/problems", h.createProblem)
	r.Post("/problems/{problemID}/tests", h.addTests)
	r.Get("/problems/{problemID}/solutions", h.listSolutions)
}

func (h *AdminHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *AdminHandler) addTests(w http.ResponseWriter, r *http.Request) {
	problemID, ok := pathUUID(w, r, "problemID")
	if !ok {
		return
	}
	var req service.AddTestsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tests, err := h.problemService.AddTests(r.Context(), problemID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, tests)
}

func (h *AdminHandler) listSolutions(w http.ResponseWriter, r *http.Request) {
	problemID, ok := pathUUID(w, r, "problemID")
	if !ok {
		return
	}
	solutions, err := h.problemService.ListSolutions(r.Context(), problemID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, solutions)
}
