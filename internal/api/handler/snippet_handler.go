package handler

import (
	"net/http"

	"codedojo/internal/app/service"
	"codedojo/internal/common"

	"github.com/go-chi/chi/v5"
)

type SnippetHandler struct {
	snippetService *service.SnippetService
}

func NewSnippetHandler(ss *service.SnippetService) *SnippetHandler {
	return &SnippetHandler{snippetService: ss}
}

type shareResponse struct {
	ID string `json:"id"`
}

// RegisterRoutes mounts the snippet endpoints. They are open to anonymous callers.
func (h *SnippetHandler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.run)
	r.Post("/share", h.share)
	r.Get("/share/{snippetID}", h.get)
}

func (h *SnippetHandler) run(w http.ResponseWriter, r *http.Request) {
	var req service.SnippetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.snippetService.Run(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *SnippetHandler) share(w http.ResponseWriter, r *http.Request) {
	var req service.SnippetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	snippet, err := h.snippetService.Share(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, shareResponse{ID: snippet.ID})
}

func (h *SnippetHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "snippetID")
	if !ok {
		return
	}
	snippet, err := h.snippetService.Get(r.Context(), id)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snippet)
}
