package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/server/models"
)

// envelope is the common part of every response body.
type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type storyDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PhotoURL    string   `json:"photoUrl"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	CreatedAt   string   `json:"createdAt"`
}

func toStoryDTO(s *models.Story) storyDTO {
	return storyDTO{
		ID:          s.ID,
		Name:        s.AuthorName,
		Description: s.Description,
		PhotoURL:    s.PhotoURL,
		Lat:         s.Lat,
		Lon:         s.Lon,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Error: true, Message: message})
}

// writeServiceError maps sentinel errors to HTTP statuses. Unknown errors
// become an opaque 500 so internals never leak into response bodies.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrRejected):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, common.ErrEmailTaken.Error())
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
