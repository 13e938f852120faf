package main

import (
	_ "embed"
	"log"
	"net/http"
	"time"
)

//go:embed page.html
var pageHTML []byte

func main() {
	http.HandleFunc("/recherche", func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(pageHTML); err != nil {
			log.Printf("[Leboncoin] Write error: %v", err)
		}

		log.Printf("[Leboncoin] %s %s?text=%s - 200 OK", r.Method, r.URL.Path, r.URL.Query().Get("text"))
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Leboncoin] Health write error: %v", err)
		}
	})

	log.Println("Mock Leboncoin running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
