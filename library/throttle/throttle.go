// Package throttle limits how fast gateway clients may issue searches.
package throttle

import (
	"context"
	"sync"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/Laisky/zap"

	"github.com/Laisky/nicosearch/library/log"
)

// Config configuration for ClientThrottle
type Config struct {
	TotalNPerSec, TotalBurst     int
	EachKeyNPerSec, EachKeyBurst int
}

// ClientThrottle token buckets shared by all clients plus one per client key
type ClientThrottle struct {
	sync.Mutex
	ctx           context.Context
	cfg           Config
	totalThrottle *gutils.RateLimiter
	keyThrottles  *sync.Map
}

// NewClientThrottle create new ClientThrottle.
// The buckets are refilled until ctx is done.
func NewClientThrottle(ctx context.Context, cfg Config) (t *ClientThrottle, err error) {
	if cfg.TotalNPerSec <= 0 || cfg.EachKeyNPerSec <= 0 {
		return nil, errors.New("NPerSec must bigger than 0")
	}
	if cfg.TotalBurst < cfg.TotalNPerSec || cfg.EachKeyBurst < cfg.EachKeyNPerSec {
		return nil, errors.New("burst must not be smaller than NPerSec")
	}

	var tt *gutils.RateLimiter
	if tt, err = gutils.NewRateLimiter(ctx, gutils.RateLimiterArgs{
		Max:     cfg.TotalBurst,
		NPerSec: cfg.TotalNPerSec,
	}); err != nil {
		return nil, errors.Wrap(err, "create total throttle")
	}

	return &ClientThrottle{
		ctx:           ctx,
		cfg:           cfg,
		totalThrottle: tt,
		keyThrottles:  new(sync.Map),
	}, nil
}

// Allow reports whether the client identified by key may search now.
// The shared bucket is checked first, so a request rejected for the total
// rate costs the client nothing. A request rejected by its own bucket still
// spends a shared token.
func (t *ClientThrottle) Allow(key string) bool {
	if !t.totalThrottle.Allow() {
		return false
	}
	return t.keyThrottle(key).Allow()
}

func (t *ClientThrottle) keyThrottle(key string) *gutils.RateLimiter {
	if tti, ok := t.keyThrottles.Load(key); ok {
		return tti.(*gutils.RateLimiter)
	}

	t.Lock()
	defer t.Unlock()
	if tti, ok := t.keyThrottles.Load(key); ok {
		return tti.(*gutils.RateLimiter)
	}

	tt, err := gutils.NewRateLimiter(t.ctx, gutils.RateLimiterArgs{
		Max:     t.cfg.EachKeyBurst,
		NPerSec: t.cfg.EachKeyNPerSec,
	})
	if err != nil {
		// cfg was validated by NewClientThrottle
		log.Logger.Panic("create new throttle for client", zap.Error(err),
			zap.String("key", key),
			zap.Int("Max", t.cfg.EachKeyBurst),
			zap.Int("NPerSec", t.cfg.EachKeyNPerSec))
	}
	t.keyThrottles.Store(key, tt)
	return tt
}
