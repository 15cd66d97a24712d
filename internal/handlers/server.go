// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizdeck/quizdeck/internal/auth"
	"github.com/quizdeck/quizdeck/internal/feed"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/room"
)

// Store is everything the HTTP layer needs from the record store: the room
// logic's interface plus direct account access for signup and login.
type Store interface {
	room.Store
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Server holds the shared dependencies behind every handler.
type Server struct {
	Store     Store
	Bus       feed.Bus
	Logger    *logrus.Logger
	Directory *room.Directory
}

// NewServer wires a handler server over the given store and feed bus.
func NewServer(store Store, bus feed.Bus, logger *logrus.Logger) *Server {
	return &Server{
		Store:     store,
		Bus:       bus,
		Logger:    logger,
		Directory: room.NewDirectory(store, bus, logger),
	}
}

// requireIdentity authenticates the request's auth_token cookie and returns
// the acting identity. Writes the HTTP error response itself on failure.
func (s *Server) requireIdentity(w http.ResponseWriter, r *http.Request) (room.Identity, bool) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return room.Identity{}, false
	}
	ident, err := auth.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return room.Identity{}, false
	}
	id, err := uuid.Parse(ident.AccountID)
	if err != nil {
		http.Error(w, "invalid user id format in token", http.StatusBadRequest)
		return room.Identity{}, false
	}
	return room.Identity{ID: id, Email: ident.Email, Username: ident.Username}, true
}
