// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/room"
)

// wsConn is one player's live websocket presence in a room.
type wsConn struct {
	userID  uuid.UUID
	outChan chan map[string]interface{}
	cancel  func()
}

// write pushes a frame onto the connection's out channel non-blockingly.
func (c *wsConn) write(logger *logrus.Logger, msg map[string]interface{}) {
	select {
	case c.outChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		logger.Warnf("outChan for user %s full or closed, dropped frame '%s'", c.userID, msgType)
	}
}

func (c *wsConn) writeError(logger *logrus.Logger, msg string) {
	c.write(logger, map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// cardView is the card as pushed to players: the answer stays server-side
// until a wrong submission reveals it.
type cardView struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Category string    `json:"category"`
}

// RoomWSHandler upgrades /room/ws/{room_id} to a websocket, joins the caller
// to the room, and streams leaderboard and round state until the client goes
// away. The session's subscriptions are torn down on every exit path.
func (s *Server) RoomWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomIDStr := strings.TrimPrefix(r.URL.Path, "/room/ws/")
		roomID, err := uuid.Parse(strings.Split(roomIDStr, "/")[0])
		if err != nil {
			http.Error(w, "invalid room_id", http.StatusBadRequest)
			return
		}

		acting, ok := s.requireIdentity(w, r)
		if !ok {
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"quizdeck"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "quizdeck" {
			c.Close(BadSubprotocolError, "client must speak the quizdeck subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &wsConn{
			userID:  acting.ID,
			outChan: make(chan map[string]interface{}, 10),
			cancel:  cancel,
		}

		sess, err := room.NewSession(ctx, s.Store, s.Bus, s.Logger, roomID, acting)
		if err != nil {
			s.Logger.Warnf("session setup failed for room %s: %v", roomID, err)
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		}
		defer sess.Close()

		machine := room.NewMachine(s.Store, s.Bus, s.Logger, roomID, acting)
		defer machine.Stop()

		// Every completed refetch pushes fresh state to this client.
		sess.SetOnChange(func() {
			conn.write(s.Logger, stateFrame(sess))
		})

		s.Logger.Infof("user %v (%s) connected to room %v", acting.ID, r.RemoteAddr, roomID)

		go s.writePump(ctx, c, conn)

		// Initial state snapshot.
		conn.write(s.Logger, stateFrame(sess))

		s.readPump(ctx, c, conn, sess, machine)

		s.Logger.Infof("user %v disconnected from room %v", acting.ID, roomID)
	}
}

// stateFrame snapshots the session's cached room, leaderboard, and current
// card into one pushable frame.
func stateFrame(sess *room.Session) map[string]interface{} {
	var card *cardView
	if c := sess.CurrentCard(); c != nil {
		card = &cardView{ID: c.ID, Question: c.Question, Category: c.Category}
	}
	r := sess.Room()
	members := sess.Members()
	if members == nil {
		members = []models.Member{}
	}
	return map[string]interface{}{
		"type":    "room_state",
		"room":    map[string]interface{}{"id": r.ID.String(), "name": r.Name, "hostID": r.HostID.String(), "isActive": r.IsActive},
		"members": members,
		"card":    card,
		"isHost":  sess.IsHost(),
	}
}

// readPump consumes client frames until the connection drops or the client
// leaves.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, conn *wsConn, sess *room.Session, machine *room.Machine) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return
			}
			if !strings.Contains(err.Error(), "context canceled") {
				s.Logger.Warnf("read error for user %v: %v", conn.userID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			conn.writeError(s.Logger, "Invalid JSON format")
			continue
		}

		if done := s.handleRoomMessage(ctx, packet, conn, sess, machine); done {
			return
		}
	}
}

// handleRoomMessage interprets the "type" field. Returns true when the
// connection should terminate (the client left).
func (s *Server) handleRoomMessage(ctx context.Context, packet map[string]interface{}, conn *wsConn, sess *room.Session, machine *room.Machine) bool {
	action, _ := packet["type"].(string)
	switch action {
	case "start_round":
		// Non-hosts fall through as a silent no-op inside the machine.
		if err := machine.StartNewRound(ctx); err != nil {
			if errors.Is(err, room.ErrNoCards) {
				conn.writeError(s.Logger, "No flashcards available to start a round")
			} else {
				s.Logger.Warnf("start round failed for user %v: %v", conn.userID, err)
				conn.writeError(s.Logger, "Failed to start round")
			}
		}

	case "submit_answer":
		text, _ := packet["text"].(string)
		fb, err := machine.SubmitAnswer(ctx, text)
		if err != nil {
			s.Logger.Warnf("submit failed for user %v: %v", conn.userID, err)
			conn.writeError(s.Logger, "Failed to submit answer")
			return false
		}
		if fb == nil {
			// Empty input or no running round.
			return false
		}
		frame := map[string]interface{}{
			"type":    "feedback",
			"correct": fb.Correct,
		}
		if fb.Correct {
			frame["score"] = fb.Score
		} else {
			frame["answer"] = fb.Answer
		}
		conn.write(s.Logger, frame)

	case "leave_room":
		if err := sess.Leave(ctx); err != nil {
			s.Logger.Warnf("leave failed for user %v: %v", conn.userID, err)
			conn.writeError(s.Logger, "Failed to leave room")
			return false
		}
		return true

	default:
		conn.writeError(s.Logger, "Unknown action type: "+action)
	}
	return false
}

// writePump drains the out channel onto the websocket and keeps the
// connection alive with periodic pings.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, conn *wsConn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.outChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.Logger.Warnf("failed to marshal outgoing frame for user %v: %v", conn.userID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.Logger.Warnf("failed to write to websocket for user %v: %v", conn.userID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				s.Logger.Warnf("ping failed for user %v, assuming disconnect: %v", conn.userID, err)
				return
			}
		}
	}
}
