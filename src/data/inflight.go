package data

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"
)

const inflightPrefix = "verify:inflight:"

// Fingerprint hashes trimmed content. Letter case is significant.
func Fingerprint(content string) string {
	h := xxhash.NewS64(0)
	_, _ = h.Write([]byte(strings.TrimSpace(content)))
	return strconv.FormatUint(h.Sum64(), 16)
}

// InFlight marks content as being verified so concurrent duplicates can be
// refused.
type InFlight struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewInFlight returns a guard whose locks expire after ttl.
func NewInFlight(rdb redis.Cmdable, ttl time.Duration) *InFlight {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &InFlight{rdb: rdb, ttl: ttl}
}

// Acquire locks content. ok is false when another submission holds it.
func (g *InFlight) Acquire(ctx context.Context, content string) (bool, error) {
	return g.rdb.SetNX(ctx, inflightPrefix+Fingerprint(content), time.Now().Unix(), g.ttl).Result()
}

// Release drops the lock for content.
func (g *InFlight) Release(ctx context.Context, content string) error {
	return g.rdb.Del(ctx, inflightPrefix+Fingerprint(content)).Err()
}
