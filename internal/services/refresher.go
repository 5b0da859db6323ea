package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// View topics pushed over the live hub.
const (
	TopicGallery     = "gallery"
	TopicLeaderboard = "leaderboard"
)

// Refresher rebuilds view snapshots after ledger mutations and hands
// them to a publisher (the websocket hub). Requests are deduplicated
// and coalesced so a vote storm produces one broadcast per tick, not
// one per vote.
type Refresher struct {
	queue   chan string
	pending map[string]bool
	mu      sync.Mutex

	views   *Views
	publish func(topic string, data interface{})
}

// NewRefresher starts the background worker. publish receives the topic
// and the fresh snapshot.
func NewRefresher(views *Views, publish func(topic string, data interface{})) *Refresher {
	r := &Refresher{
		queue:   make(chan string, 64),
		pending: make(map[string]bool),
		views:   views,
		publish: publish,
	}
	go r.worker()
	return r
}

// Schedule queues a topic for rebroadcast (non-blocking, deduplicated).
func (r *Refresher) Schedule(topic string) {
	r.mu.Lock()
	if r.pending[topic] {
		r.mu.Unlock()
		return
	}
	r.pending[topic] = true
	r.mu.Unlock()

	select {
	case r.queue <- topic:
	default:
		r.mu.Lock()
		delete(r.pending, topic)
		r.mu.Unlock()
		log.Printf("refresher: queue full, dropped %s", topic)
	}
}

// ScheduleAll queues every view topic.
func (r *Refresher) ScheduleAll() {
	r.Schedule(TopicGallery)
	r.Schedule(TopicLeaderboard)
}

func (r *Refresher) worker() {
	batch := make([]string, 0, 4)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case topic := <-r.queue:
			// Clear pending before the rebuild, not after: a mutation
			// landing while the broadcast is in flight must queue a fresh
			// pass or its subscribers stay on the stale snapshot.
			r.mu.Lock()
			delete(r.pending, topic)
			r.mu.Unlock()
			if !containsTopic(batch, topic) {
				batch = append(batch, topic)
			}
		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
			for _, topic := range batch {
				r.broadcast(topic)
			}
			batch = batch[:0]
		}
	}
}

func containsTopic(batch []string, topic string) bool {
	for _, t := range batch {
		if t == topic {
			return true
		}
	}
	return false
}

func (r *Refresher) broadcast(topic string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data interface{}
	var err error
	switch topic {
	case TopicLeaderboard:
		data, err = r.views.Leaderboard(ctx, LeaderboardLimit)
	case TopicGallery:
		data, err = r.views.Gallery(ctx)
	default:
		return
	}
	if err != nil {
		log.Printf("refresher: rebuild %s failed: %v", topic, err)
		return
	}
	r.publish(topic, data)
}
