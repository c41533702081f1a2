package httpapi

import (
	"encoding/json"
	"net/http"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResultDTO struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		h.log.Warn(r.Context(), "register failed", "email", req.Email, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{Error: false, Message: "User created"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		envelope
		LoginResult loginResultDTO `json:"loginResult"`
	}{
		envelope:    envelope{Error: false, Message: "success"},
		LoginResult: loginResultDTO{UserID: res.UserID, Name: res.Name, Token: res.Token},
	})
}
