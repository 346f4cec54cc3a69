package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

type intent struct {
	UserID    string            `json:"user_id"`
	Kind      string            `json:"kind"`
	ContentID string            `json:"content_id"`
	Payload   map[string]string `json:"payload"`
	SentAt    string            `json:"sent_at"`
}

func main() {
	http.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Simulate delivery latency (20-100ms)
		time.Sleep(time.Duration(20+time.Now().UnixNano()%80) * time.Millisecond)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var in intent
		if err := json.Unmarshal(body, &in); err != nil {
			log.Printf("[Dispatch] Invalid intent: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		log.Printf("[Dispatch] %s -> user %s (content %s, payload %v)",
			in.Kind, in.UserID, in.ContentID, in.Payload)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		if _, err := w.Write([]byte(`{"status":"accepted"}`)); err != nil {
			log.Printf("[Dispatch] Write error: %v", err)
		}
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Dispatch] Health write error: %v", err)
		}
	})

	log.Println("Mock Dispatch running on :8090")
	server := &http.Server{
		Addr:         ":8090",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
