package main

import (
	_ "embed"
	"log"
	"net/http"
	"time"
)

//go:embed results.html
var resultsHTML []byte

//go:embed recent.html
var recentHTML []byte

func main() {
	http.HandleFunc("/sch/i.html", func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		page := resultsHTML
		// _sop=10 is the newly-listed sort used by the recency pass
		if r.URL.Query().Get("_sop") == "10" {
			page = recentHTML
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(page); err != nil {
			log.Printf("[eBay] Write error: %v", err)
		}

		log.Printf("[eBay] %s %s?_nkw=%s - 200 OK", r.Method, r.URL.Path, r.URL.Query().Get("_nkw"))
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[eBay] Health write error: %v", err)
		}
	})

	log.Println("Mock eBay running on :8082")
	server := &http.Server{
		Addr:         ":8082",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
