package recall

import (
	"context"
	"time"

	"github.com/lawdna/billrec/cf"
	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pipeline"
	"github.com/lawdna/billrec/pkg/utils"
)

// Collaborative 是协同过滤召回源（User-based CF）。
//
// 算法流程（每次调用全量重建，矩阵与相似度都是调用内的局部值）：
//  1. MetricsStore 读全量互动记录 → 构建用户-法案矩阵（去重 + 可选时间衰减）
//  2. 计算用户两两余弦相似度
//  3. 按选定变体做 KNN 评分预测
//  4. 对用户未消费的法案按预测分降序取 TopN
//
// 工程特征：
//  - 实时性：差（每次调用 O(users²·items) 重算）
//  - 可解释性：强
//  - 冷启动：差——由组合策略层用兜底召回补位
type Collaborative struct {
	Metrics core.MetricsStore

	// Variant 预测变体：simple / knn / knn_bias / knn_bias_sig（默认 knn）
	Variant string

	// NeighborSize 预测时考虑的邻居数，0 表示使用全部评分者
	NeighborSize int

	// TopN 最终返回的法案数
	TopN int

	// DecayRate 互动分的时间衰减率（每天），0 表示不衰减
	DecayRate float64

	// DefaultScore 未知用户/法案的默认预测分，0 表示 cf.DefaultScore
	DefaultScore float64

	// SigLevel / MinRatings 显著性过滤参数（仅 knn_bias_sig 变体）
	SigLevel   int
	MinRatings int

	// Now 矩阵构建的基准时间，nil 表示 time.Now（测试注入用）
	Now func() time.Time
}

func (r *Collaborative) Name() string        { return "recall.cf" }
func (r *Collaborative) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Collaborative) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Collaborative) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Metrics == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	ids, predict, err := r.recommend(ctx, rctx.UserID, requestN(rctx, r.TopN))
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.Score = predict(rctx.UserID, id, r.NeighborSize)
		it.PutLabel("recall_source", utils.Label{Value: "cf", Source: "recall"})
		it.PutLabel("cf_variant", utils.Label{Value: r.variant(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// RecommendIDs 返回某用户的 TopN 推荐法案 ID（RecommendCollaborative 的核心）。
func (r *Collaborative) RecommendIDs(ctx context.Context, userID string, nItems int) ([]string, error) {
	ids, _, err := r.recommend(ctx, userID, nItems)
	return ids, err
}

func (r *Collaborative) recommend(
	ctx context.Context,
	userID string,
	nItems int,
) ([]string, cf.PredictFunc, error) {
	records, err := r.Metrics.GetInteractions(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	matrix := cf.Builder{DecayRate: r.DecayRate, Now: now}.Build(records)

	predictor := &cf.Predictor{
		Matrix:     matrix,
		Sim:        cf.CosineSimilarity(matrix),
		Default:    r.DefaultScore,
		SigLevel:   r.SigLevel,
		MinRatings: r.MinRatings,
	}
	predict := predictor.Variant(r.variant())

	recommender := &cf.Recommender{Matrix: matrix, Predict: predict}
	return recommender.Recommend(userID, nItems, r.NeighborSize), predict, nil
}

func (r *Collaborative) variant() string {
	if r.Variant == "" {
		return cf.VariantKNN
	}
	return r.Variant
}
