// internal/handlers/card.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/quizdeck/quizdeck/internal/models"
)

// CreateCardHandler adds a flashcard to the reference deck.
func (s *Server) CreateCardHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireIdentity(w, r); !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad card payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		http.Error(w, "question and answer are required", http.StatusBadRequest)
		return
	}

	card := models.Flashcard{
		Question: req.Question,
		Answer:   req.Answer,
		Category: req.Category,
	}
	if err := s.Store.InsertFlashcard(r.Context(), &card); err != nil {
		s.Logger.Errorf("failed to insert flashcard: %v", err)
		http.Error(w, "error creating card", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(card)
}

// ListCardsHandler returns the full deck.
func (s *Server) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireIdentity(w, r); !ok {
		return
	}

	cards, err := s.Store.ListFlashcards(r.Context())
	if err != nil {
		s.Logger.Errorf("failed to list flashcards: %v", err)
		http.Error(w, "error listing cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}
