// Package main runs a demo WebSocket client for plan events: it computes a
// plan over HTTP and prints the events that arrive on /ws/plans.
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

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	date := time.Now().Format("2006-01-02")

	// Connect WS first so the plan event is not missed
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/ws/plans", RawQuery: "date=" + date}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	// Compute a plan with an inline errand
	body := []byte(fmt.Sprintf(`{"date":%q,"errands":[{"title":"Post office","location":{"lat":30.26,"lng":-97.74}}]}`, date))
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/plan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var plan struct {
		ID       string `json:"id"`
		Feasible bool   `json:"feasible"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		log.Fatal(err)
	}
	log.Printf("Plan %s feasible=%t", plan.ID, plan.Feasible)

	// Print events until the deadline
	_ = c.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg map[string]any
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("event: %v", msg)
	}
}
