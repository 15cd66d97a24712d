// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/quizdeck/quizdeck/internal/room"
)

// CreateRoomHandler creates a room hosted by the caller, auto-joining them.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	acting, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad room request payload", http.StatusBadRequest)
		return
	}

	created, err := s.Directory.CreateRoom(r.Context(), acting, req.Name)
	if err != nil {
		if errors.Is(err, room.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Logger.Errorf("failed to create room: %v", err)
		http.Error(w, "error creating room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ListRoomsHandler returns every active room with its live player count,
// zero-member rooms included.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireIdentity(w, r); !ok {
		return
	}

	listings, err := s.Directory.ListActiveRooms(r.Context())
	if err != nil {
		s.Logger.Errorf("failed to list rooms: %v", err)
		http.Error(w, "error listing rooms", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}

// CloseRoomHandler deactivates a room. Host only; anyone else is a no-op.
func (s *Server) CloseRoomHandler(w http.ResponseWriter, r *http.Request) {
	acting, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		RoomID string `json:"room_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad close request payload", http.StatusBadRequest)
		return
	}
	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		http.Error(w, "invalid room_id", http.StatusBadRequest)
		return
	}

	if err := s.Directory.CloseRoom(r.Context(), acting, roomID); err != nil {
		s.Logger.Errorf("failed to close room %s: %v", roomID, err)
		http.Error(w, "error closing room", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
