// Package redisstore mirrors persisted-state documents and event traces
// to Redis, as an optional sink alongside the on-disk JSON documents
// pkg/persist reads and writes. Keying follows the teacher's
// internal/testutil/redis.go "TABLE|key" hash convention: a network's
// snapshot lives at hash "netsim:snapshot|<name>", its event trace as a
// list at "netsim:trace|<name>".
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/routesim/netsim/pkg/persist"
)

const (
	snapshotTable = "netsim:snapshot"
	traceTable    = "netsim:trace"
)

// Store wraps a Redis client scoped to one logical namespace of
// networks (one Redis DB, per the teacher's configdb/statedb split).
type Store struct {
	client *redis.Client
}

// Open connects to addr (host:port) selecting db, grounded on the
// teacher's testutil redis.NewClient(&redis.Options{Addr, DB}) call.
func Open(addr string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

func (s *Store) Close() error { return s.client.Close() }

func hashKey(table, name string) string { return table + "|" + name }

// SaveSnapshot writes st as a single-field Redis hash entry, JSON-encoded
// under the "state" field so a consumer can HGET it without a full
// GET/SET round trip on a bare string key.
func (s *Store) SaveSnapshot(ctx context.Context, name string, st *persist.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("redisstore: marshal snapshot %q: %w", name, err)
	}
	if err := s.client.HSet(ctx, hashKey(snapshotTable, name), "state", string(data)).Err(); err != nil {
		return fmt.Errorf("redisstore: save snapshot %q: %w", name, err)
	}
	return nil
}

// LoadSnapshot reads back a snapshot previously written by SaveSnapshot.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (*persist.State, error) {
	data, err := s.client.HGet(ctx, hashKey(snapshotTable, name), "state").Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("redisstore: no snapshot named %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: load snapshot %q: %w", name, err)
	}
	var st persist.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("redisstore: unmarshal snapshot %q: %w", name, err)
	}
	return &st, nil
}

// DeleteSnapshot removes a previously saved snapshot, if any.
func (s *Store) DeleteSnapshot(ctx context.Context, name string) error {
	return s.client.Del(ctx, hashKey(snapshotTable, name)).Err()
}

// AppendTrace appends one JSON-encoded event record to name's trace
// list. Mirrors kernel.Network.Record's JSON-lines shape, but as a
// Redis list instead of a file so multiple simulator instances can
// append to the same trace concurrently.
func (s *Store) AppendTrace(ctx context.Context, name string, record json.RawMessage) error {
	if err := s.client.RPush(ctx, hashKey(traceTable, name), []byte(record)).Err(); err != nil {
		return fmt.Errorf("redisstore: append trace %q: %w", name, err)
	}
	return nil
}

// ReadTrace returns every record appended to name's trace, oldest first.
func (s *Store) ReadTrace(ctx context.Context, name string) ([]json.RawMessage, error) {
	raw, err := s.client.LRange(ctx, hashKey(traceTable, name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: read trace %q: %w", name, err)
	}
	out := make([]json.RawMessage, len(raw))
	for i, r := range raw {
		out[i] = json.RawMessage(r)
	}
	return out, nil
}

// ClearTrace truncates name's trace list.
func (s *Store) ClearTrace(ctx context.Context, name string) error {
	return s.client.Del(ctx, hashKey(traceTable, name)).Err()
}

// Exists reports whether a snapshot named name has been saved.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, hashKey(snapshotTable, name)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: checking snapshot %q: %w", name, err)
	}
	return n > 0, nil
}

// TraceWriter adapts Store to io.Writer so it can be passed directly to
// kernel.Network.Record: every Write is assumed to be one JSON-lines
// record (kernel.Network writes exactly one line per call) and is
// RPush'd onto name's trace list with the trailing newline trimmed.
type TraceWriter struct {
	Store *Store
	Ctx   context.Context
	Name  string
}

func (w TraceWriter) Write(p []byte) (int, error) {
	line := p
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if err := w.Store.AppendTrace(w.Ctx, w.Name, json.RawMessage(append([]byte(nil), line...))); err != nil {
		return 0, err
	}
	return len(p), nil
}
