// 文件: pkg/report/cache_repo.go
// 报告 Redis 缓存层
//
// 【缓存策略】Cache Aside
// - 读: 先查 Redis，miss 则查 DB 并回填
// - 写: 先写 DB，成功后删除列表缓存
// 报告写入后不再修改，单条缓存不需要失效

package report

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 确保实现了接口
var _ Repository = (*CachedRepository)(nil)

const (
	cacheKeyPrefix = "loan:report:"
	cacheKeyID     = cacheKeyPrefix + "id:"
	cacheKeyRecent = cacheKeyPrefix + "recent:"

	cacheTTL       = 24 * time.Hour
	recentCacheTTL = time.Minute
)

// CachedRepository Redis 缓存装饰器
type CachedRepository struct {
	repo   Repository
	redis  *redis.Client
	logger *zap.Logger
}

// NewCachedRepository 创建带缓存的 Repository
//
//	gormRepo := NewGormRepository(db)
//	repo := NewCachedRepository(gormRepo, rdb, logger)
func NewCachedRepository(repo Repository, rds *redis.Client, logger *zap.Logger) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{repo: repo, redis: rds, logger: logger}
}

// =============================================================================
// 读操作 (带缓存)
// =============================================================================

// GetByID 根据 ID 查询
func (r *CachedRepository) GetByID(ctx context.Context, id uint64) (*ScenarioReport, error) {
	key := cacheKeyID + strconv.FormatUint(id, 10)

	// 1. 查缓存
	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var rep ScenarioReport
		if json.Unmarshal(data, &rep) == nil {
			return &rep, nil
		}
	}

	// 2. Cache miss, 查底层
	rep, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. 回填缓存
	r.set(ctx, key, rep, cacheTTL)
	return rep, nil
}

// ListRecent 最近的报告（短 TTL 缓存）
func (r *CachedRepository) ListRecent(ctx context.Context, limit int) ([]*ScenarioReport, error) {
	key := cacheKeyRecent + strconv.Itoa(limit)

	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var reps []*ScenarioReport
		if json.Unmarshal(data, &reps) == nil {
			return reps, nil
		}
	}

	reps, err := r.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, reps, recentCacheTTL)
	return reps, nil
}

// =============================================================================
// 写操作
// =============================================================================

// Create 写 DB，然后删除列表缓存
func (r *CachedRepository) Create(ctx context.Context, rep *ScenarioReport) error {
	if err := r.repo.Create(ctx, rep); err != nil {
		return err
	}
	r.invalidateRecent(ctx)
	return nil
}

// =============================================================================
// 缓存操作
// =============================================================================

func (r *CachedRepository) set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.Warn("report cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidateRecent 删除所有 recent:* 列表缓存
func (r *CachedRepository) invalidateRecent(ctx context.Context) {
	iter := r.redis.Scan(ctx, 0, cacheKeyRecent+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("report cache scan failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}
