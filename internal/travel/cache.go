package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"daynav/internal/engine"
	"daynav/internal/metrics"
)

// RedisCache is a read-through cache in front of a CostSource. Legs between
// the same coordinates rarely change day to day, so hits avoid routing-server
// round trips across plan requests and instances. Cache failures fall through
// to the source; the cache is never load-bearing.
type RedisCache struct {
	rdb  *redis.Client
	next engine.CostSource
	ttl  time.Duration
}

// NewRedisCache connects to url (redis:// form) and wraps next.
func NewRedisCache(url string, next engine.CostSource, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisCache{rdb: redis.NewClient(opt), next: next, ttl: ttl}, nil
}

func (c *RedisCache) key(from, to engine.GeoPoint) string {
	return fmt.Sprintf("travel:%.5f,%.5f>%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}

type cachedCost struct {
	Meters      float64 `json:"m"`
	DurationSec float64 `json:"s"`
	Estimated   bool    `json:"est,omitempty"`
}

func (c *RedisCache) Cost(ctx context.Context, from, to engine.GeoPoint) (engine.Cost, error) {
	k := c.key(from, to)
	if raw, err := c.rdb.Get(ctx, k).Result(); err == nil {
		var cc cachedCost
		if json.Unmarshal([]byte(raw), &cc) == nil {
			metrics.TravelCacheLookups.WithLabelValues("hit").Inc()
			return engine.Cost{
				Meters:    cc.Meters,
				Duration:  time.Duration(cc.DurationSec * float64(time.Second)),
				Estimated: cc.Estimated,
			}, nil
		}
	}
	metrics.TravelCacheLookups.WithLabelValues("miss").Inc()
	cost, err := c.next.Cost(ctx, from, to)
	if err != nil {
		return engine.Cost{}, err
	}
	data, _ := json.Marshal(cachedCost{
		Meters:      cost.Meters,
		DurationSec: cost.Duration.Seconds(),
		Estimated:   cost.Estimated,
	})
	_ = c.rdb.Set(ctx, k, data, c.ttl).Err()
	return cost, nil
}
