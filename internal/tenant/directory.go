package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

// CachedDirectory keeps resolved clients in Redis for a short TTL.  Only
// hits are cached; writers must call Invalidate after creating, updating or
// deleting a client so a stale slug never resolves to the wrong tenant.
type CachedDirectory struct {
	next   Directory
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCachedDirectory wraps next.  With a nil Redis client or a non-positive
// TTL every call goes straight to next.
func NewCachedDirectory(next Directory, rdb *redis.Client, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, rdb: rdb, ttl: ttl, prefix: "tenant:"}
}

func (d *CachedDirectory) enabled() bool { return d.rdb != nil && d.ttl > 0 }

func (d *CachedDirectory) BySlug(ctx context.Context, slug string) (*model.Client, error) {
	return d.cached(ctx, d.prefix+"slug:"+slug, func() (*model.Client, error) {
		return d.next.BySlug(ctx, slug)
	})
}

func (d *CachedDirectory) Superadmin(ctx context.Context) (*model.Client, error) {
	return d.cached(ctx, d.prefix+"superadmin", func() (*model.Client, error) {
		return d.next.Superadmin(ctx)
	})
}

func (d *CachedDirectory) First(ctx context.Context) (*model.Client, error) {
	return d.cached(ctx, d.prefix+"first", func() (*model.Client, error) {
		return d.next.First(ctx)
	})
}

// Invalidate drops the cached entries for slugs together with the fallback
// entries, which any client change may affect.
func (d *CachedDirectory) Invalidate(ctx context.Context, slugs ...string) error {
	if !d.enabled() {
		return nil
	}
	keys := []string{d.prefix + "superadmin", d.prefix + "first"}
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, d.prefix+"slug:"+s)
		}
	}
	return d.rdb.Del(ctx, keys...).Err()
}

func (d *CachedDirectory) cached(ctx context.Context, key string, load func() (*model.Client, error)) (*model.Client, error) {
	if !d.enabled() {
		return load()
	}
	bs, err := d.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c model.Client
		if jerr := json.Unmarshal(bs, &c); jerr == nil {
			return &c, nil
		}
	case !errors.Is(err, redis.Nil):
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("tenant cache read failed")
	}

	c, err := load()
	if err != nil || c == nil {
		return c, err
	}
	if payload, jerr := json.Marshal(c); jerr == nil {
		if serr := d.rdb.Set(ctx, key, payload, d.ttl).Err(); serr != nil {
			zerolog.Ctx(ctx).Warn().Err(serr).Str("key", key).Msg("tenant cache write failed")
		}
	}
	return c, nil
}
