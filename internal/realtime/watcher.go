package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/trivia-services/internal/comm"
)

// DefaultPollInterval is the fallback cadence when no push arrives.
const DefaultPollInterval = 2 * time.Second

// SnapshotFetcher pulls the current snapshot for a session, used as the
// polling fallback when push notifications are delayed or dropped.
type SnapshotFetcher func(ctx context.Context, gameCode string) (*comm.SessionSnapshot, error)

// Watcher keeps one client's view of a session current. Snapshots arrive
// two ways, push over NATS and periodic polls, and both funnel through the
// same gate: a snapshot older than the newest one already applied is
// discarded, so a slow poll can never roll the view backwards. The client
// holds no authoritative state of its own; Apply receives the full record
// and re-derives everything from it.
type Watcher struct {
	Conn         *nats.Conn // optional, poll-only when nil
	GameCode     string
	Fetch        SnapshotFetcher
	Apply        func(*comm.SessionSnapshot)
	PollInterval time.Duration

	mu       sync.Mutex
	lastSeen time.Time
}

// Run blocks, feeding Apply until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if w.Conn != nil {
		sub, err := w.Conn.Subscribe(comm.TopicSessionChanged, w.handlePush)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap, err := w.Fetch(ctx, w.GameCode)
			if err != nil {
				log.Errorf("poll for session %s failed: %v", w.GameCode, err)
				continue
			}
			w.offer(snap)
		}
	}
}

func (w *Watcher) handlePush(msgNats *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, msg); err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if msg.Type != "session-changed" || msg.GameCode != w.GameCode {
		return
	}

	snap := &comm.SessionSnapshot{}
	if err := json.Unmarshal(msg.Data, snap); err != nil {
		log.Errorf("invalid snapshot payload: %s", err)
		return
	}
	w.offer(snap)
}

// offer applies the snapshot unless a newer one has already been seen.
func (w *Watcher) offer(snap *comm.SessionSnapshot) {
	if snap == nil || snap.Session == nil {
		return
	}

	w.mu.Lock()
	if !snap.Session.UpdatedAt.After(w.lastSeen) {
		w.mu.Unlock()
		return
	}
	w.lastSeen = snap.Session.UpdatedAt
	w.mu.Unlock()

	w.Apply(snap)
}
