package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quizdeck/quizdeck/internal/auth"
	"github.com/quizdeck/quizdeck/internal/database"
	"github.com/quizdeck/quizdeck/internal/models"
)

// CreateUserHandler registers a new account.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Username == "" {
		http.Error(w, "email and username are required", http.StatusBadRequest)
		return
	}

	account := models.Account{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}

	if err := s.Store.CreateAccount(r.Context(), &account); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			http.Error(w, "email or username already exists", http.StatusConflict)
			return
		}
		s.Logger.Errorf("failed to create account: %v", err)
		http.Error(w, "error creating account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler verifies credentials and sets the auth_token cookie. The
// token is also returned in the JSON body.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	account, err := s.Store.GetAccountByEmail(r.Context(), req.Email)
	if err != nil {
		s.Logger.Infof("failed login for %s: %v", req.Email, err)
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	match, err := auth.ComparePasswordAndHash(req.Password, account.Password)
	if err != nil || !match {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	token, err := auth.CreateJWT(account.ID.String(), account.Email, account.Username)
	if err != nil {
		s.Logger.Errorf("failed to create jwt: %v", err)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TOKEN_EXPIRE_TIME_SEC,
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(loginResponse{Token: token}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
		return
	}
}
