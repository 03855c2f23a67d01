package handler

import (
	"encoding/json"
	"net/http"

	"codedojo/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// decodeJSON answers 422 itself when the body is not valid for dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

// pathUUID reads a uuid path parameter, answering 422 when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid "+name+": must be a UUID")
		return "", false
	}
	return id.String(), true
}
