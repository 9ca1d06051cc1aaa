package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/health-package-engine/internal/assessment"
	"github.com/terra-clan/health-package-engine/internal/models"
)

// Live message types
const (
	liveEvaluate = "evaluate"
	livePing     = "ping"
	livePong     = "pong"
	liveResult   = "result"
	liveError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleLive streams package previews while the questionnaire is being
// filled in. Previews are never stored.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.config.MaxBodyBytes)
	caller := CallerFromContext(r.Context())

	slog.Info("live preview connected", "caller", caller.Label())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var msg models.LiveMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			if err := s.sendLiveError(conn, "invalid message format"); err != nil {
				break
			}
			continue
		}

		var reply models.LiveMessage
		switch msg.Type {
		case liveEvaluate:
			reply = s.preview(r, msg.QuestionnaireData, caller)
		case livePing:
			reply = models.LiveMessage{Type: livePong}
		default:
			reply = models.LiveMessage{Type: liveError, Error: "unknown message type: " + msg.Type}
		}

		if err := s.sendLiveMessage(conn, reply); err != nil {
			break
		}
	}

	slog.Info("live preview disconnected", "caller", caller.Label())
}

func (s *Server) preview(r *http.Request, raw json.RawMessage, caller *models.Caller) models.LiveMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return models.LiveMessage{Type: liveError, Error: "questionnaireData is required"}
	}

	result, err := s.service.Evaluate(r.Context(), raw, assessment.EvaluateOptions{Caller: caller})
	if err != nil {
		logEvaluateError(r, err, caller)
		return models.LiveMessage{Type: liveError, Error: err.Error()}
	}
	return models.LiveMessage{Type: liveResult, Data: result}
}

func (s *Server) sendLiveMessage(conn *websocket.Conn, msg models.LiveMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal live message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send live message", "error", err)
		return err
	}
	return nil
}

func (s *Server) sendLiveError(conn *websocket.Conn, message string) error {
	return s.sendLiveMessage(conn, models.LiveMessage{Type: liveError, Error: message})
}
