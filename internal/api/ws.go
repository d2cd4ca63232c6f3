package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsSubscribePayload struct {
	TripID string `json:"tripId"`
}

// WSHandler handles /v1/ws. Clients send subscribe messages carrying a trip
// id and receive plan events as "next" frames until they send complete or
// drop the connection.
func (s *Server) WSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	type sub struct {
		tripID string
		ch     chan SSEEvent
	}
	subs := map[string]sub{}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	write := func(v any) error { return conn.WriteJSON(v) }

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "connection_init":
			_ = write(wsMessage{Type: "connection_ack"})
			go func() {
				ticker := time.NewTicker(20 * time.Second)
				defer ticker.Stop()
				for range ticker.C {
					if err := write(wsMessage{Type: "ping"}); err != nil {
						return
					}
				}
			}()
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "subscribe":
			var pl wsSubscribePayload
			_ = json.Unmarshal(msg.Payload, &pl)
			if pl.TripID == "" {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`{"message":"tripId required"}`)})
				_ = write(wsMessage{Type: "complete", ID: msg.ID})
				continue
			}
			if _, err := s.Store.GetTrip(r.Context(), pl.TripID); err != nil {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`{"message":"trip not found"}`)})
				_ = write(wsMessage{Type: "complete", ID: msg.ID})
				continue
			}
			ch := s.Broker.Subscribe(pl.TripID)
			subs[msg.ID] = sub{tripID: pl.TripID, ch: ch}
			go func(id string, c chan SSEEvent) {
				for evt := range c {
					payload, _ := json.Marshal(evt)
					_ = write(wsMessage{Type: "next", ID: id, Payload: payload})
				}
				_ = write(wsMessage{Type: "complete", ID: id})
			}(msg.ID, ch)
		case "complete":
			if s0, ok := subs[msg.ID]; ok {
				s.Broker.Unsubscribe(s0.tripID, s0.ch)
				delete(subs, msg.ID)
			}
		default:
			// ignore
		}
	}
	for id, s0 := range subs {
		s.Broker.Unsubscribe(s0.tripID, s0.ch)
		delete(subs, id)
	}
}
