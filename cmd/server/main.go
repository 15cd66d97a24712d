// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/quizdeck/quizdeck/internal/auth"
	"github.com/quizdeck/quizdeck/internal/database"
	"github.com/quizdeck/quizdeck/internal/feed"
	"github.com/quizdeck/quizdeck/internal/handlers"
	"github.com/quizdeck/quizdeck/internal/middleware"
	"github.com/quizdeck/quizdeck/internal/store"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	var st handlers.Store
	var bus feed.Bus

	// Without PG_HOST the service runs entirely in process: in-memory store
	// and in-memory feed. Useful for local play and development.
	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
		if err := database.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("schema bootstrap failed: %v", err)
		}
		if err := feed.ConnectRedis(); err != nil {
			log.Fatalf("redis connect failed: %v", err)
		}
		st = database.Store{}
		bus = feed.NewRedisBus(logger)
	} else {
		logger.Warn("PG_HOST not set, using in-memory store and feed")
		st = store.NewMemory()
		bus = feed.NewMemoryBus()
	}

	srv := handlers.NewServer(st, bus, logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", srv.CreateUserHandler)
	mux.HandleFunc("/user/login", srv.LoginHandler)

	// flashcard endpoints
	mux.HandleFunc("/card/create", srv.CreateCardHandler)
	mux.HandleFunc("/card/list", srv.ListCardsHandler)

	// room directory endpoints
	mux.Handle("/room/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.CreateRoomHandler,
	)))
	mux.Handle("/room/list", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.ListRoomsHandler,
	)))
	mux.Handle("/room/close", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.CloseRoomHandler,
	)))

	// room ws
	mux.Handle("/room/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		srv.RoomWSHandler(),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
