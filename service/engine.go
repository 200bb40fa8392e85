// Package service 装配推荐引擎的组合策略。
//
// 组合策略（三态分支）：
//   - 用户有足够的近期互动：内容相似度聚合 + 随机探索名额（WARM）
//   - 用户没有/互动不足：热门 + 最新 + 冷门 + 随机的冷启动配比（COLD_START）
//   - 任一路不足额时：随机补齐到目标数量（TOP_UP）
//
// 统一错误边界：任何一步失败都记日志、记异常计数，对外只返回
// core.ErrInternal，不泄漏存储细节。
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lawdna/billrec/config"
	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pkg/obs"
	"github.com/lawdna/billrec/recall"
)

// Recommendation 是一次推荐的结果回显。
type Recommendation struct {
	UserID string `json:"user_id"`

	// RecommendedContentIDs 推荐的法案 ID，有序、无重复
	RecommendedContentIDs []string `json:"recommended_content_ids"`

	// NContents 实际返回的法案数（<= NRecommendations）
	NContents int `json:"n_contents"`

	// NRecommendations 请求的目标数量
	NRecommendations int `json:"n_recommendations"`
}

// Engine 是推荐引擎门面。
type Engine struct {
	Metrics core.MetricsStore
	Catalog core.CatalogStore
	Sims    core.SimilarityStore

	Settings config.Settings

	Log        zerolog.Logger
	Exceptions obs.ExceptionCounter

	// Now 测试注入用，nil 表示 time.Now
	Now func() time.Time
}

func NewEngine(
	metrics core.MetricsStore,
	catalog core.CatalogStore,
	sims core.SimilarityStore,
	settings config.Settings,
	log zerolog.Logger,
	exceptions obs.ExceptionCounter,
) *Engine {
	if exceptions == nil {
		exceptions = obs.NopCounter{}
	}
	return &Engine{
		Metrics:    metrics,
		Catalog:    catalog,
		Sims:       sims,
		Settings:   settings,
		Log:        log,
		Exceptions: exceptions,
	}
}

// RecommendForUser 返回给某用户的 n 条推荐（组合策略入口）。
// nContents 是近期访问回看窗口，<= 0 时使用配置默认值；原样回显在结果中。
func (e *Engine) RecommendForUser(ctx context.Context, userID string, nContents, n int) (*Recommendation, error) {
	if n <= 0 {
		return &Recommendation{
			UserID:                userID,
			RecommendedContentIDs: []string{},
			NContents:             nContents,
			NRecommendations:      n,
		}, nil
	}

	limit := nContents
	if limit <= 0 {
		limit = e.Settings.RecentLimit
	}
	ids, err := e.compose(ctx, userID, limit, n)
	if err != nil {
		return nil, e.fail("recommend_for_user", userID, err)
	}

	return &Recommendation{
		UserID:                userID,
		RecommendedContentIDs: ids,
		NContents:             nContents,
		NRecommendations:      n,
	}, nil
}

// RecommendCollaborative 返回协同过滤预测的 TopN 推荐。
// neighborSize <= 0 时使用配置默认值。
func (e *Engine) RecommendCollaborative(ctx context.Context, userID string, n, neighborSize int) (*Recommendation, error) {
	if n <= 0 {
		return &Recommendation{
			UserID:                userID,
			RecommendedContentIDs: []string{},
			NRecommendations:      n,
		}, nil
	}
	if neighborSize <= 0 {
		neighborSize = e.Settings.NeighborSize
	}

	source := &recall.Collaborative{
		Metrics:      e.Metrics,
		Variant:      e.Settings.Variant,
		NeighborSize: neighborSize,
		TopN:         n,
		DecayRate:    e.Settings.DecayRate,
		DefaultScore: e.Settings.DefaultScore,
		SigLevel:     e.Settings.SigLevel,
		MinRatings:   e.Settings.MinRatings,
		Now:          e.Now,
	}
	ids, err := source.RecommendIDs(ctx, userID, n)
	if err != nil {
		return nil, e.fail("recommend_collaborative", userID, err)
	}

	return &Recommendation{
		UserID:                userID,
		RecommendedContentIDs: ids,
		NContents:             len(ids),
		NRecommendations:      n,
	}, nil
}

// SimilarItems 返回与某法案最相似的 n 个法案。
func (e *Engine) SimilarItems(ctx context.Context, itemID string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	ids, err := e.Sims.TopSimilar(ctx, itemID, n)
	if err != nil {
		return nil, e.fail("similar_items", itemID, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// compose 执行三态组合策略，返回有序无重复、长度不超过 n 的 ID 列表。
func (e *Engine) compose(ctx context.Context, userID string, recentLimit, n int) ([]string, error) {
	recent, state, err := e.Metrics.GetRecent(ctx, userID, recentLimit)
	if err != nil {
		return nil, err
	}

	var ids []string
	switch state {
	case core.RecentSome:
		ids, err = e.warm(ctx, userID, recent, n)
	default:
		ids, err = e.coldStart(ctx, n)
	}
	if err != nil {
		return nil, err
	}

	// 不足额时随机补齐
	if len(ids) < n {
		topUp, err := e.random(ctx, n-len(ids), toSet(ids))
		if err != nil {
			return nil, err
		}
		ids = append(ids, topUp...)
	}

	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

// warm 走内容相似度聚合：近期互动过的法案作为种子，
// 聚合相似度分数取 TopN，并留出随机探索名额。
func (e *Engine) warm(ctx context.Context, userID string, recent []string, n int) ([]string, error) {
	nRandom := e.Settings.NRandom
	if nRandom > n {
		nRandom = n
	}

	similar, err := e.Sims.SumSimilar(ctx, recent, recent, n-nRandom)
	if err != nil {
		return nil, err
	}

	ids := dedup(similar)
	if nRandom > 0 {
		exclude := toSet(ids)
		for _, id := range recent {
			exclude[id] = struct{}{}
		}
		random, err := e.random(ctx, nRandom, exclude)
		if err != nil {
			return nil, err
		}
		ids = append(ids, random...)
	}

	e.Log.Debug().
		Str("user_id", userID).
		Int("seeds", len(recent)).
		Int("similar", len(similar)).
		Int("random", nRandom).
		Msg("warm recommendation composed")
	return ids, nil
}

// coldStart 按固定配比组合兜底召回：热门 + 最新 + 冷门 + 随机。
// 每一路都排除前面已选中的法案。
func (e *Engine) coldStart(ctx context.Context, n int) ([]string, error) {
	quota := e.Settings.ColdStart

	best, err := (&recall.BestSeller{Catalog: e.Catalog}).Top(ctx, quota.BestSellers)
	if err != nil {
		return nil, err
	}
	ids := dedup(best)
	seen := toSet(ids)

	newest, err := (&recall.NewBills{Catalog: e.Catalog}).Newest(ctx, quota.Newest, seen)
	if err != nil {
		return nil, err
	}
	ids = appendSeen(ids, seen, newest)

	worst, err := (&recall.NewBills{Catalog: e.Catalog, Mode: "worst_sellers"}).WorstSellers(ctx, quota.WorstSellers, seen)
	if err != nil {
		return nil, err
	}
	ids = appendSeen(ids, seen, worst)

	random, err := e.random(ctx, quota.Random, seen)
	if err != nil {
		return nil, err
	}
	ids = appendSeen(ids, seen, random)

	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func (e *Engine) random(ctx context.Context, n int, exclude map[string]struct{}) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	source := &recall.Random{Catalog: e.Catalog, Seed: e.Settings.RandomSeed}
	return source.Sample(ctx, n, exclude)
}

// fail 是统一错误边界：记日志、记异常计数，返回对外的不透明错误。
func (e *Engine) fail(op, subject string, err error) error {
	e.Log.Error().
		Err(err).
		Str("op", op).
		Str("subject", subject).
		Msg("recommendation failed")
	e.Exceptions.Inc(op)
	return core.ErrInternal
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func appendSeen(ids []string, seen map[string]struct{}, more []string) []string {
	for _, id := range more {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
