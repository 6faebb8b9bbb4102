package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence mirrors connected students into Redis so external tooling can see
// who is in the session. Markers are best effort and write-only: the session
// never reads them back, so session state stays volatile across restarts.
// Keys: poll:student:{connID} -> display name, expiring after ttl.
type Presence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresence(client *redis.Client, ttl time.Duration) *Presence {
	return &Presence{client: client, ttl: ttl}
}

func (p *Presence) MarkJoined(connID, name string) {
	_ = p.client.Set(context.Background(), p.key(connID), name, p.ttl).Err()
}

func (p *Presence) MarkLeft(connID string) {
	_ = p.client.Del(context.Background(), p.key(connID)).Err()
}

func (p *Presence) key(connID string) string {
	return "poll:student:" + connID
}
