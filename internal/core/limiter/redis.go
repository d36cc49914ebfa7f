package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 固定窗口计数器，限流配额放 Redis，多实例共享
type Store struct {
	rdb *redis.Client
}

func New(addr, pass string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

// Incr 窗口内自增并返回当前计数和窗口剩余时间。
// key 第一次出现时设置窗口 TTL。
func (s *Store) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return incr.Val(), ttl.Val(), nil
}

func (s *Store) Close() error { return s.rdb.Close() }
