package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/woosflex/traceon"
	"github.com/woosflex/traceon/internal/mirror"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// cacheServer handles the example HTTP API in front of a single Cache.
// It is a thin REST/WS wrapper, not part of the core: nothing in
// internal/ingest, internal/store, or internal/snapshot imports it.
type cacheServer struct {
	cache  *traceon.Cache
	mirror *mirror.Mirror
}

func newCacheServer(cache *traceon.Cache, m *mirror.Mirror) *cacheServer {
	return &cacheServer{cache: cache, mirror: m}
}

func (s *cacheServer) registerRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/cache/{id}", s.handleGet).Methods("GET")
	router.HandleFunc("/api/v1/cache/{id}/fastq", s.handleGetFastq).Methods("GET")
	router.HandleFunc("/api/v1/ingest", s.handleIngest).Methods("POST")
	router.HandleFunc("/api/v1/stats", s.handleStats).Methods("GET")
	router.HandleFunc("/ws/ingest-progress", s.handleIngestProgress)

	log.Println("[API] TracEon routes registered")
}

func (s *cacheServer) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	seq, ok := s.cache.Get(id)
	if !ok {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "no record for id")
		return
	}
	s.sendJSON(w, map[string]string{"id": id, "sequence": seq})
}

func (s *cacheServer) handleGetFastq(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok := s.cache.GetFastq(id)
	if !ok {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "no fastq record for id")
		return
	}
	s.sendJSON(w, map[string]string{"id": id, "sequence": rec.Sequence, "quality": rec.Quality})
}

type ingestRequest struct {
	Path string `json:"path"`
}

// handleIngest ingests a server-local file path. Demo/trusted-input use
// only: the caller controls the filesystem this process can see, exactly
// like the teacher's loadFile CLI flag.
func (s *cacheServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "missing path")
		return
	}

	res, err := s.cache.Ingest(req.Path)
	if err != nil {
		s.sendError(w, http.StatusUnprocessableEntity, "INGEST_FAILED", err.Error())
		return
	}
	s.mirrorAll()

	s.sendJSON(w, map[string]interface{}{
		"record_count":     res.RecordCount,
		"skipped_count":    res.SkippedCount,
		"format":           res.Format.String(),
		"workers":          res.Workers,
		"parallel":         res.Parallel,
		"elapsed_ms":       res.Elapsed.Milliseconds(),
		"instrument":       res.Instrument.String(),
		"quality_encoding": res.QualityEncoding.String(),
	})
}

func (s *cacheServer) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, map[string]interface{}{
		"size":        s.cache.Size(),
		"format":      s.cache.DetectedFormat().String(),
		"total_bytes": s.cache.TotalBytes(),
	})
}

// handleIngestProgress upgrades to a websocket and streams a single
// ingest's progress as it runs, mirroring the teacher's collab Hub push
// model but pushing ingest telemetry instead of cursor state. Since
// Cache.Ingest is a single blocking call rather than a pollable job, this
// pushes a start event, the completion event, and nothing in between —
// a future ingest.Result could carry incremental counters for finer-grained
// updates.
func (s *cacheServer) handleIngestProgress(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "missing path query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.WriteJSON(map[string]string{"event": "started", "path": path})

	start := time.Now()
	res, err := s.cache.Ingest(path)
	if err != nil {
		conn.WriteJSON(map[string]string{"event": "error", "message": err.Error()})
		return
	}
	s.mirrorAll()

	conn.WriteJSON(map[string]interface{}{
		"event":            "complete",
		"record_count":     res.RecordCount,
		"skipped_count":    res.SkippedCount,
		"elapsed_ms":       time.Since(start).Milliseconds(),
		"instrument":       res.Instrument.String(),
		"quality_encoding": res.QualityEncoding.String(),
	})
}

// mirrorAll pushes every currently-stored record's encoded payload to the
// Redis mirror, if one is attached and connected. A no-op mirror.Mirror
// (nil address, failed ping) makes WriteSequence a no-op, so this is safe
// to call unconditionally after every ingest.
func (s *cacheServer) mirrorAll() {
	if !s.mirror.Enabled() {
		return
	}
	s.cache.EachEncoded(func(id string, sequence, quality []byte) {
		s.mirror.WriteSequence(id, sequence, quality)
	})
}

func (s *cacheServer) sendJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

func (s *cacheServer) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error_code": code, "message": message})
}
