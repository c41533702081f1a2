package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/narratlas/narratlas/internal/server/models"
)

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *Handler) subscribePush(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub := &models.Subscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.push.Subscribe(r.Context(), userID, sub); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{Error: false, Message: "Subscribed"})
}

func (h *Handler) unsubscribePush(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.push.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Error: false, Message: "Unsubscribed"})
}
