// TracEon example HTTP server
// Exposes a single in-process Cache over a small REST API plus a
// websocket ingest-progress feed, with an optional Redis write-through
// mirror. Demo/trusted-input executable: not part of the TracEon core.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/woosflex/traceon"
	"github.com/woosflex/traceon/internal/mirror"
)

const (
	defaultPort      = 8080
	defaultRedisAddr = ""
)

func main() {
	port := flag.Int("port", defaultPort, "HTTP server port")
	redisAddr := flag.String("redis", defaultRedisAddr, "Redis address for the write-through mirror (empty to disable)")
	redisPassword := flag.String("redis-password", "", "Redis password")
	redisDB := flag.Int("redis-db", 0, "Redis database number")
	enableMirror := flag.Bool("mirror", false, "enable the Redis write-through mirror")
	flag.Parse()

	log.Println("==============================================")
	log.Println("  TracEon Server")
	log.Println("  In-memory FASTA/FASTQ sequence cache")
	log.Println("==============================================")
	log.Printf("Port: %d", *port)
	log.Printf("Mirror enabled: %v", *enableMirror)
	log.Println("==============================================")

	cache := traceon.New()

	var m *mirror.Mirror
	if *enableMirror {
		m = mirror.New(*redisAddr, *redisPassword, *redisDB)
	}

	srv := newCacheServer(cache, m)

	router := mux.NewRouter()
	srv.registerRoutes(router)
	router.HandleFunc("/health", handleHealth).Methods("GET")
	router.HandleFunc("/api/v1/info", handleInfo).Methods("GET")

	addr := fmt.Sprintf(":%d", *port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[SERVER] Starting HTTP server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[SERVER] Failed to start server: %v", err)
		}
	}()

	log.Println("[SERVER] Server started successfully")
	log.Println("[SERVER] Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[SERVER] Shutting down server...")
	if m != nil {
		if err := m.Close(); err != nil {
			log.Printf("[SERVER] Error closing mirror: %v", err)
		}
	}
	log.Println("[SERVER] Server stopped")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","timestamp":%d}`, time.Now().Unix())
}

func handleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	info := `{
		"name": "TracEon API",
		"version": "1.0.0",
		"description": "In-memory FASTA/FASTQ sequence cache",
		"endpoints": {
			"get_record": "GET /api/v1/cache/{id}",
			"get_fastq_record": "GET /api/v1/cache/{id}/fastq",
			"ingest": "POST /api/v1/ingest",
			"stats": "GET /api/v1/stats",
			"ingest_progress_ws": "GET /ws/ingest-progress?path=..."
		}
	}`
	w.Write([]byte(info))
}
