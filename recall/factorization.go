package recall

import (
	"context"
	"sort"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pipeline"
	"github.com/lawdna/billrec/pkg/utils"
)

// Factors 是矩阵分解离线训练的产物：一个隐向量加一个偏置项。
type Factors struct {
	Bias   float64   `json:"bias"`
	Vector []float64 `json:"vector"`
}

// FactorStore 提供矩阵分解离线产物的在线查表。
type FactorStore interface {
	// GlobalBias 返回全局偏置（训练集非零分的均值）。
	GlobalBias(ctx context.Context) (float64, error)

	// UserFactors 返回某用户的隐向量与偏置；未训练到的用户返回 nil。
	UserFactors(ctx context.Context, userID string) (*Factors, error)

	// AllItemFactors 返回所有法案的隐向量与偏置。
	AllItemFactors(ctx context.Context) (map[string]*Factors, error)
}

// Factorization 是矩阵分解召回源：离线训练、在线点积查表。
// 预测分 = 全局偏置 + 用户偏置 + 法案偏置 + 用户隐向量 · 法案隐向量。
//
// 与 Collaborative 不同，它不在请求内拟合任何东西：
// 隐向量由离线任务训练好后经 FactorStore 写入存储。
type Factorization struct {
	Store FactorStore
	TopK  int
}

const defaultFactorTopK = 20

func (r *Factorization) Name() string        { return "recall.factorization" }
func (r *Factorization) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Factorization) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口；rctx.Params["exclude"] 中的法案不参与打分。
func (r *Factorization) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	user, err := r.Store.UserFactors(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || len(user.Vector) == 0 {
		return nil, nil
	}

	global, err := r.Store.GlobalBias(ctx)
	if err != nil {
		return nil, err
	}
	itemFactors, err := r.Store.AllItemFactors(ctx)
	if err != nil {
		return nil, err
	}

	exclude := rctx.ExcludeSet()
	type scored struct {
		id    string
		score float64
	}
	scores := make([]scored, 0, len(itemFactors))
	for id, f := range itemFactors {
		if _, skip := exclude[id]; skip {
			continue
		}
		scores = append(scores, scored{
			id:    id,
			score: global + user.Bias + f.Bias + dotProduct(user.Vector, f.Vector),
		})
	}
	// map 遍历无序，分数相同时按 ID 升序保证确定性
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].id < scores[j].id
	})

	n := requestN(rctx, r.TopK)
	if n <= 0 {
		n = defaultFactorTopK
	}
	if len(scores) > n {
		scores = scores[:n]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := core.NewItem(s.id)
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: "factorization", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// dotProduct 计算点积；长度不一致视为不可比，返回 0。
func dotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
