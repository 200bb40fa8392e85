package core

import (
	"context"
	"time"
)

// InteractionRecord 是一条用户-法案互动记录（停留时长、访问次数等打分信号）。
// (UserID, ItemID) 唯一：后写覆盖前写（upsert），永不追加。
type InteractionRecord struct {
	UserID    string
	ItemID    string
	Score     float64
	UpdatedAt time.Time
}

// CatalogItem 是法案目录中的一条记录，仅供兜底策略使用，与互动数据无关。
type CatalogItem struct {
	ID         string
	Views      int64
	Likes      int64
	Comments   int64
	ResolvedAt time.Time // 本会议议决日（rgs_rsln_date），零值表示未议决
}

// RecentState 是近期互动查询的三态结果。
// 有数据 / 完全没有数据 / 有但少于可信阈值——后两者都会触发冷启动兜底，
// 但语义不同，不能用一个 bool 合并。
type RecentState int

const (
	RecentSome         RecentState = iota // 近期互动足够，可走相似度聚合
	RecentEmpty                           // 没有任何近期互动
	RecentInsufficient                    // 有互动但低于可信阈值
)

func (s RecentState) String() string {
	switch s {
	case RecentSome:
		return "some"
	case RecentEmpty:
		return "empty"
	case RecentInsufficient:
		return "insufficient"
	default:
		return "unknown"
	}
}

// MetricsStore 提供用户互动数据（协同过滤的输入）。
//
// 实现：
//   - store.StoreMetricsAdapter（Redis/内存 KV 上的 JSON 行）
//   - feast.MetricsProvider（Feast 在线特征）
type MetricsStore interface {
	// GetInteractions 返回全量互动记录。矩阵每次调用都从这里全量重建。
	GetInteractions(ctx context.Context) ([]InteractionRecord, error)

	// GetRecent 返回某用户最近互动过的法案列表（最多 limit 条）与三态结果。
	GetRecent(ctx context.Context, userID string, limit int) ([]string, RecentState, error)
}

// CatalogStore 提供法案目录（兜底策略的输入）。
type CatalogStore interface {
	GetItems(ctx context.Context) ([]CatalogItem, error)
}

// SimilarityStore 持久化内容相似度分数（content-based 路径）。
// (source, target) 有序对唯一，重算时覆盖写入。
type SimilarityStore interface {
	// Upsert 写入/覆盖一条相似度分数
	Upsert(ctx context.Context, sourceID, targetID string, score float64) error

	// TopSimilar 返回与 sourceID 最相似的前 n 个法案（分数降序）
	TopSimilar(ctx context.Context, sourceID string, n int) ([]string, error)

	// SumSimilar 把 sourceIDs 到各候选法案的相似度分数求和，
	// 排除 exclude 中的法案后按总分降序返回前 n 个。
	SumSimilar(ctx context.Context, sourceIDs []string, exclude []string, n int) ([]string, error)
}
