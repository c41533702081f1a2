package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/narratlas/narratlas/internal/server/services"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing; larger
// photo parts spill to a temp file.
const maxMultipartMemory = 2 << 20

func (h *Handler) listStories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	withLocation := q.Get("location") == "1"

	list, err := h.stories.List(r.Context(), page, size, withLocation)
	if err != nil {
		h.log.Error(r.Context(), "list stories failed", "error", err)
		writeServiceError(w, err)
		return
	}

	dtos := make([]storyDTO, 0, len(list))
	for _, s := range list {
		dtos = append(dtos, toStoryDTO(s))
	}

	writeJSON(w, http.StatusOK, struct {
		envelope
		ListStory []storyDTO `json:"listStory"`
	}{
		envelope:  envelope{Error: false, Message: "Stories fetched successfully"},
		ListStory: dtos,
	})
}

func (h *Handler) getStory(w http.ResponseWriter, r *http.Request) {
	story, err := h.stories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		envelope
		Story storyDTO `json:"story"`
	}{
		envelope: envelope{Error: false, Message: "Story fetched successfully"},
		Story:    toStoryDTO(story),
	})
}

func (h *Handler) createStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	in := services.CreateStoryInput{
		UserID:      userID,
		Description: r.FormValue("description"),
	}

	photo, name, err := readPhotoPart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable photo part")
		return
	}
	in.Photo = photo
	in.PhotoName = name

	in.Lat, in.Lon, err = parseCoordinateFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat and lon must be numbers")
		return
	}

	story, err := h.stories.Create(r.Context(), in)
	if err != nil {
		h.log.Warn(r.Context(), "create story failed", "user_id", userID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		envelope
		StoryID  string   `json:"storyId"`
		PhotoURL string   `json:"photoUrl"`
		Lat      *float64 `json:"lat"`
		Lon      *float64 `json:"lon"`
	}{
		envelope: envelope{Error: false, Message: "Story created successfully"},
		StoryID:  story.ID,
		PhotoURL: story.PhotoURL,
		Lat:      story.Lat,
		Lon:      story.Lon,
	})
}

// readPhotoPart returns the photo payload and file name, or nils when the
// part is absent.
func readPhotoPart(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// parseCoordinateFields reads optional lat/lon form fields. A present but
// non-numeric value is a client error; pairing is enforced by the service.
func parseCoordinateFields(r *http.Request) (*float64, *float64, error) {
	parse := func(field string) (*float64, error) {
		raw := r.FormValue(field)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}

	lat, err := parse("lat")
	if err != nil {
		return nil, nil, err
	}
	lon, err := parse("lon")
	if err != nil {
		return nil, nil, err
	}
	return lat, lon, nil
}
