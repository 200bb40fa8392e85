package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/lawdna/billrec/core"
)

const exposureKeyPrefix = "exposure:bloom:"

// BloomExposure 记录每个用户已经被推荐过的法案，基于布隆过滤器。
// 过滤器按用户分 key 序列化存储，本地缓存反序列化结果。
//
// 布隆过滤器有误判：Seen 返回 true 只表示"可能推荐过"，
// 误判的代价只是少推一条候选，可以接受。
type BloomExposure struct {
	store core.Store

	// capacity 是单个用户过滤器的预期容量
	capacity uint
	// falsePositiveRate 是期望的误判率（例如 0.01 表示 1%）
	falsePositiveRate float64
	// ttl 是过滤器的过期时间，0 表示不过期
	ttl time.Duration

	cache map[string]*bloom.BloomFilter
	mu    sync.RWMutex
}

func NewBloomExposure(store core.Store, capacity uint, falsePositiveRate float64, ttl time.Duration) *BloomExposure {
	return &BloomExposure{
		store:             store,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		ttl:               ttl,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

// Seen 检查某法案是否（可能）已经推荐给该用户。
func (b *BloomExposure) Seen(ctx context.Context, userID, itemID string) (bool, error) {
	bf, err := b.load(ctx, userID)
	if err != nil {
		return false, err
	}
	if bf == nil {
		// 过滤器不存在，一定没推荐过
		return false, nil
	}
	return bf.Test([]byte(itemID)), nil
}

// Mark 记录一批法案已推荐给该用户。
func (b *BloomExposure) Mark(ctx context.Context, userID string, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	bf, err := b.load(ctx, userID)
	if err != nil {
		return err
	}
	if bf == nil {
		bf = bloom.NewWithEstimates(b.capacity, b.falsePositiveRate)
	}

	for _, itemID := range itemIDs {
		bf.Add([]byte(itemID))
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize bloom filter: %w", err)
	}

	key := exposureKeyPrefix + userID
	ttlSec := int(b.ttl / time.Second)
	if err := b.store.Set(ctx, key, buf.Bytes(), ttlSec); err != nil {
		return fmt.Errorf("save bloom filter: %w", err)
	}

	b.mu.Lock()
	b.cache[key] = bf
	b.mu.Unlock()
	return nil
}

// ClearCache 清除本地缓存，强制下次从存储重新加载。
func (b *BloomExposure) ClearCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[string]*bloom.BloomFilter)
}

// load 返回该用户的过滤器；不存在时返回 (nil, nil)。
func (b *BloomExposure) load(ctx context.Context, userID string) (*bloom.BloomFilter, error) {
	key := exposureKeyPrefix + userID

	b.mu.RLock()
	cached, exists := b.cache[key]
	b.mu.RUnlock()
	if exists && cached != nil {
		return cached, nil
	}

	data, err := b.store.Get(ctx, key)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bloom filter: %w", err)
	}

	bf := bloom.NewWithEstimates(b.capacity, b.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserialize bloom filter: %w", err)
	}

	b.mu.Lock()
	b.cache[key] = bf
	b.mu.Unlock()
	return bf, nil
}
