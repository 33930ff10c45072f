// Package mirror implements an optional Redis write-through sidecar for a
// Cache. It is explicitly not part of the core: internal/ingest and
// internal/store never import it, and a Cache works identically with or
// without one attached. cmd/traceon-server wires it in when started with
// -mirror.
//
// Adapted from the teacher's internal/collab.SessionManager: connect once
// at startup, ping to confirm, and fall back to a disabled no-op rather
// than failing the caller if Redis is unreachable.
package mirror

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const recordKeyPrefix = "traceon:record:"

var logger = log.New(log.Writer(), "[MIRROR] ", log.LstdFlags)

// Mirror write-mirrors encoded record payloads to Redis under
// traceon:record:<id>. It degrades to a disabled no-op when Redis is
// unreachable at construction time, matching SessionManager.useRedis.
type Mirror struct {
	redis   *redis.Client
	ctx     context.Context
	enabled bool
}

// New connects to addr and returns a Mirror. If addr is empty or the ping
// fails, the returned Mirror is disabled: every method becomes a no-op and
// no error is returned, since a broken mirror must never block ingest.
func New(addr, password string, db int) *Mirror {
	m := &Mirror{ctx: context.Background()}

	if addr == "" {
		logger.Println("no address configured, mirror disabled")
		return m
	}

	m.redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(m.ctx, 2*time.Second)
	defer cancel()
	if err := m.redis.Ping(pingCtx).Err(); err != nil {
		logger.Printf("connection failed: %v (mirror disabled)", err)
		m.enabled = false
		return m
	}

	logger.Printf("connected to %s", addr)
	m.enabled = true
	return m
}

// Enabled reports whether the mirror is actively writing to Redis.
func (m *Mirror) Enabled() bool {
	return m != nil && m.enabled
}

// WriteSequence mirrors a single record's encoded sequence bytes (and, for
// FASTQ, quality bytes) under recordKeyPrefix+id. A write failure is logged
// and otherwise ignored: the mirror is a best-effort sidecar, never a
// source of truth the cache depends on.
func (m *Mirror) WriteSequence(id string, sequence, quality []byte) {
	if !m.Enabled() {
		return
	}
	key := recordKeyPrefix + id
	fields := map[string]interface{}{"sequence": sequence}
	if len(quality) > 0 {
		fields["quality"] = quality
	}
	if err := m.redis.HSet(m.ctx, key, fields).Err(); err != nil {
		logger.Printf("write failed for %s: %v", id, err)
	}
}

// Close closes the underlying Redis connection, if any.
func (m *Mirror) Close() error {
	if m == nil || m.redis == nil {
		return nil
	}
	return m.redis.Close()
}
