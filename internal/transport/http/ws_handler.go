package http

import (
	"encoding/json"
	"log"
	"net/http"

	"live-poll-service/internal/app"
	"live-poll-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	session  *app.Session
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(session *app.Session, hub *Hub) *WSHandler {
	return &WSHandler{
		session: session,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startQuestionPayload struct {
	Question        string               `json:"question"`
	Options         []domain.OptionInput `json:"options"`
	DurationSeconds float64              `json:"durationSeconds"`
}

type startFromBankPayload struct {
	SetID           string  `json:"setId"`
	Index           int     `json:"index"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type chatPayload struct {
	Text       string `json:"text"`
	SenderName string `json:"senderName"`
}

// ServeWS upgrades the request and pumps inbound events into the session
// until the connection drops. Every connection starts with a state:init
// snapshot so late joiners converge immediately.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	c := h.hub.add(conn)
	defer func() {
		conn.Close()
		h.hub.remove(c.id)
		h.session.Disconnect(c.id)
	}()

	h.session.SendState(c.id)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read from %s: %v", c.id, err)
			}
			return
		}
		h.dispatch(r, c.id, inbound)
	}
}

func (h *WSHandler) dispatch(r *http.Request, connID string, inbound inboundMessage) {
	switch inbound.Type {
	case "state:request":
		h.session.SendState(connID)

	case "student:join":
		var name string
		if err := json.Unmarshal(inbound.Payload, &name); err != nil {
			h.hub.Send(connID, app.EventError, "invalid join payload")
			return
		}
		_ = h.session.Join(connID, name)

	case "student:answer":
		var optionID string
		if err := json.Unmarshal(inbound.Payload, &optionID); err != nil {
			h.hub.Send(connID, app.EventError, "invalid answer payload")
			return
		}
		_ = h.session.SubmitAnswer(connID, optionID)

	case "teacher:startQuestion":
		var payload startQuestionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.hub.Send(connID, app.EventError, "invalid question payload")
			return
		}
		_ = h.session.StartQuestion(connID, payload.Question, payload.Options, payload.DurationSeconds)

	case "teacher:startFromBank":
		var payload startFromBankPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.hub.Send(connID, app.EventError, "invalid bank payload")
			return
		}
		_ = h.session.StartFromBank(r.Context(), connID, payload.SetID, payload.Index, payload.DurationSeconds)

	case "teacher:endQuestion":
		h.session.EndQuestion(connID)

	case "teacher:removeStudent":
		var studentID string
		if err := json.Unmarshal(inbound.Payload, &studentID); err != nil {
			h.hub.Send(connID, app.EventError, "invalid remove payload")
			return
		}
		h.session.RemoveStudent(connID, studentID)

	case "chat:send":
		var payload chatPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.hub.Send(connID, app.EventError, "invalid chat payload")
			return
		}
		h.session.SendChat(connID, payload.SenderName, payload.Text)

	default:
		h.hub.Send(connID, app.EventError, "unsupported message type")
	}
}
