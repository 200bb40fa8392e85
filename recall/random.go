package recall

import (
	"context"
	"math/rand"
	"sort"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pipeline"
	"github.com/lawdna/billrec/pkg/utils"
)

// Random 是随机召回源：从目录中均匀无放回地抽取 n 个法案，
// 跳过调用方传入的排除集。
//
// Seed 固定时抽样结果可复现（同样的目录与排除集得到同样的结果），
// 这是测试确定性的前提；0 表示使用默认种子 42。
type Random struct {
	Catalog core.CatalogStore
	TopN    int

	// Seed 随机种子。0 是"未设置"哨兵，等价于默认种子 42；
	// 种子 0 本身因此不可选，需要其他序列时换任意非零值。
	Seed int64
}

func (r *Random) Name() string        { return "recall.random" }
func (r *Random) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Random) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Random) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	n := requestN(rctx, r.TopN)
	ids, err := r.Sample(ctx, n, rctx.ExcludeSet())
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "random", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Sample 返回 min(n, 剩余目录数) 个随机法案 ID。
func (r *Random) Sample(ctx context.Context, n int, exclude map[string]struct{}) ([]string, error) {
	if n <= 0 || r.Catalog == nil {
		return nil, nil
	}
	items, err := r.Catalog.GetItems(ctx)
	if err != nil {
		return nil, err
	}

	pool := make([]string, 0, len(items))
	for _, it := range items {
		if _, skip := exclude[it.ID]; skip {
			continue
		}
		pool = append(pool, it.ID)
	}
	// 排序后再洗牌：目录的遍历顺序不影响抽样结果
	sort.Strings(pool)

	seed := r.Seed
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(pool) > n {
		pool = pool[:n]
	}
	return pool, nil
}
