// Package main runs a demo WebSocket client for trip plan events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const demoTrip = `{
  "config": {"mph": 30, "defaultDwellMin": 10, "seed": 7, "lambda": 0.5},
  "days": [{
    "dayId": "d1",
    "start": {"id": "hotel", "name": "Hotel", "lat": 40.0, "lon": -75.0},
    "end": {"id": "hotel-end", "name": "Hotel", "lat": 40.0, "lon": -75.0},
    "window": {"start": "08:00", "end": "18:00"}
  }],
  "stores": [
    {"id": "s1", "name": "North Store", "lat": 40.05, "lon": -75.0, "dayId": "d1", "score": 3},
    {"id": "s2", "name": "East Store", "lat": 40.0, "lon": -74.95, "dayId": "d1", "score": 2}
  ]
}`

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Create a trip
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/trips", bytes.NewReader([]byte(demoTrip)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatal(err)
	}
	if created.ID == "" {
		log.Fatal("no trip id returned")
	}
	log.Printf("Trip ID: %s", created.ID)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/ws"}
	hdr := http.Header{}
	hdr.Set("X-Role", "admin")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	pl, _ := json.Marshal(map[string]any{"tripId": created.ID})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Trigger a plan.solved event via solve
	time.Sleep(500 * time.Millisecond)
	solveReq, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/v1/trips/%s/solve", base, created.ID), bytes.NewReader([]byte(`{"dayId":"d1"}`)))
	solveReq.Header.Set("Content-Type", "application/json")
	solveReq.Header.Set("X-Role", "admin")
	_, _ = http.DefaultClient.Do(solveReq)

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
